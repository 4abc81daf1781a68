// Package scheduler fires the recurring report jobs. Each job kind runs on
// its own cron expression in the household timezone; a per-kind guard skips
// a tick outright if the previous run of the same kind is still going.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"duit/internal/core"
	"duit/internal/insight"
	"duit/internal/ledger"
	"duit/internal/notify"
	"duit/internal/report"

	"github.com/robfig/cron/v3"
)

// MemberLister enumerates the registered members to notify.
type MemberLister interface {
	List(ctx context.Context) ([]core.Member, error)
}

// Specs holds the cron expressions for the three job kinds.
type Specs struct {
	Daily   string
	Weekly  string
	Monthly string
}

// DefaultSpecs fires daily at 21:00, weekly Sunday 18:00, and monthly on
// the 28th at 20:00.
func DefaultSpecs() Specs {
	return Specs{
		Daily:   "0 21 * * *",
		Weekly:  "0 18 * * 0",
		Monthly: "0 20 28 * *",
	}
}

type Scheduler struct {
	cron       *cron.Cron
	location   *time.Location
	querier    ledger.Querier
	members    MemberLister
	dispatcher *notify.Dispatcher
	insights   *insight.Generator
	logger     *slog.Logger

	// One guard per job kind. A tick that finds its guard held is
	// dropped, never queued.
	running map[core.NotificationKind]*atomic.Bool

	now func() time.Time
}

func New(
	location *time.Location,
	querier ledger.Querier,
	members MemberLister,
	dispatcher *notify.Dispatcher,
	insights *insight.Generator,
	logger *slog.Logger,
) *Scheduler {
	running := map[core.NotificationKind]*atomic.Bool{}
	for _, kind := range core.NotificationKinds() {
		running[kind] = &atomic.Bool{}
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(location)),
		location:   location,
		querier:    querier,
		members:    members,
		dispatcher: dispatcher,
		insights:   insights,
		logger:     logger,
		running:    running,
		now:        time.Now,
	}
}

// Start registers the cron entries and begins ticking. Stop with Stop.
func (s *Scheduler) Start(ctx context.Context, specs Specs) error {
	jobs := []struct {
		kind core.NotificationKind
		spec string
		run  func(context.Context)
	}{
		{core.NotifyDaily, specs.Daily, s.runDaily},
		{core.NotifyWeekly, specs.Weekly, s.runWeekly},
		{core.NotifyMonthly, specs.Monthly, s.runMonthly},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, func() {
			s.trigger(ctx, job.kind, job.run)
		})
		if err != nil {
			return fmt.Errorf("register %s job (%q): %w", job.kind, job.spec, err)
		}
		s.logger.Info("report job registered", "kind", job.kind, "spec", job.spec, "tz", s.location)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow fires one job kind immediately, sharing the overlap guard with the
// scheduled runs. Reports false when the kind was already running.
func (s *Scheduler) RunNow(ctx context.Context, kind core.NotificationKind) bool {
	switch kind {
	case core.NotifyDaily:
		return s.trigger(ctx, kind, s.runDaily)
	case core.NotifyWeekly:
		return s.trigger(ctx, kind, s.runWeekly)
	case core.NotifyMonthly:
		return s.trigger(ctx, kind, s.runMonthly)
	}
	return false
}

func (s *Scheduler) trigger(ctx context.Context, kind core.NotificationKind, run func(context.Context)) bool {
	guard := s.running[kind]
	if !guard.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping", "kind", kind)
		return false
	}
	defer guard.Store(false)

	start := s.now()
	run(ctx)
	s.logger.Info("report job finished", "kind", kind, "took", time.Since(start))
	return true
}

func (s *Scheduler) runDaily(ctx context.Context) {
	today := core.DateOf(s.now().In(s.location))
	s.forEachMember(ctx, core.NotifyDaily, func(m core.Member) (string, bool, error) {
		summary, err := report.DailySummary(ctx, s.querier, today, m.ID)
		if err != nil {
			return "", false, err
		}
		if summary.Empty() {
			return "", false, nil
		}
		return report.DailyNotification(summary, m.DisplayName), true, nil
	})
}

func (s *Scheduler) runWeekly(ctx context.Context) {
	end := core.DateOf(s.now().In(s.location))
	s.forEachMember(ctx, core.NotifyWeekly, func(m core.Member) (string, bool, error) {
		thisWeek, err := report.WeeklySummary(ctx, s.querier, end, m.ID)
		if err != nil {
			return "", false, err
		}
		if thisWeek.Empty() {
			return "", false, nil
		}
		lastWeek, err := report.WeeklySummary(ctx, s.querier, end.AddDays(-7), m.ID)
		if err != nil {
			return "", false, err
		}
		return report.WeeklyNotification(thisWeek, lastWeek), true, nil
	})
}

func (s *Scheduler) runMonthly(ctx context.Context) {
	now := s.now().In(s.location)
	month, year := int(now.Month()), now.Year()
	prevMonth, prevYear := month-1, year
	if prevMonth == 0 {
		prevMonth, prevYear = 12, year-1
	}

	s.forEachMember(ctx, core.NotifyMonthly, func(m core.Member) (string, bool, error) {
		current, err := report.MonthlySummary(ctx, s.querier, month, year, m.ID)
		if err != nil {
			return "", false, err
		}
		if current.Empty() {
			return "", false, nil
		}
		previous, err := report.MonthlySummary(ctx, s.querier, prevMonth, prevYear, m.ID)
		if err != nil {
			return "", false, err
		}
		insights := s.insights.Monthly(ctx, current, previous)
		return report.MonthlyNotification(current, insights), true, nil
	})
}

// forEachMember renders and dispatches one message per member. A failure for
// one member is logged and never blocks the rest; empty windows render
// nothing and are skipped silently.
func (s *Scheduler) forEachMember(ctx context.Context, kind core.NotificationKind, render func(core.Member) (string, bool, error)) {
	members, err := s.members.List(ctx)
	if err != nil {
		s.logger.Error("list members for report run", "kind", kind, "error", err)
		return
	}

	var messages []notify.Message
	for _, m := range members {
		text, ok, err := render(m)
		if err != nil {
			s.logger.Error("render report", "kind", kind, "member", m.ID, "error", err)
			continue
		}
		if !ok {
			s.logger.Debug("no activity in window, skipping", "kind", kind, "member", m.ID)
			continue
		}
		messages = append(messages, notify.Message{MemberID: m.ID, Text: text})
	}

	if len(messages) == 0 {
		s.logger.Info("no reports to deliver", "kind", kind)
		return
	}
	s.dispatcher.DispatchAll(ctx, kind, messages)
}
