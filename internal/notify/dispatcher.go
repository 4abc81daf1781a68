// Package notify delivers scheduled report messages to members, honoring
// their notification preferences and retrying transient transport failures.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duit/internal/core"
)

// Transport sends a rendered message to a single recipient.
type Transport interface {
	Send(ctx context.Context, recipientID, text string) error
}

// PreferenceSource resolves a member's notification preferences.
type PreferenceSource interface {
	Get(ctx context.Context, memberID string) (core.Preferences, error)
}

// Outcome classifies a single delivery attempt sequence.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// BatchResult aggregates delivery outcomes across recipients.
type BatchResult struct {
	Sent    int
	Skipped int
	Failed  int
}

const (
	maxAttempts    = 3
	baseBackoff    = time.Second
	recipientDelay = 100 * time.Millisecond
	attemptTimeout = 30 * time.Second
)

type Dispatcher struct {
	transport Transport
	prefs     PreferenceSource
	logger    *slog.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewDispatcher(transport Transport, prefs PreferenceSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		prefs:     prefs,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Dispatch delivers one message to one member. The member's preference for
// the notification kind is checked first; a disabled preference yields
// OutcomeSkipped without touching the transport. Transport failures are
// retried up to three times with doubling backoff.
func (d *Dispatcher) Dispatch(ctx context.Context, memberID string, kind core.NotificationKind, text string) (Outcome, error) {
	prefs, err := d.prefs.Get(ctx, memberID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load preferences for %s: %w", memberID, err)
	}
	enabled, err := prefs.Enabled(kind)
	if err != nil {
		return OutcomeFailed, err
	}
	if !enabled {
		d.logger.Debug("notification skipped by preference", "member", memberID, "kind", kind)
		return OutcomeSkipped, nil
	}

	var lastErr error
	backoff := baseBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := d.transport.Send(attemptCtx, memberID, text)
		cancel()
		if err == nil {
			return OutcomeSent, nil
		}
		lastErr = err
		d.logger.Warn("notification send failed",
			"member", memberID,
			"kind", kind,
			"attempt", attempt,
			"error", err)
		if attempt < maxAttempts {
			d.sleep(backoff)
			backoff *= 2
		}
	}
	return OutcomeFailed, fmt.Errorf("send to %s after %d attempts: %w", memberID, maxAttempts, lastErr)
}

// Message pairs a recipient with the text rendered for them.
type Message struct {
	MemberID string
	Text     string
}

// DispatchAll delivers a batch of per-member messages sequentially with a
// short delay between recipients. One member failing never stops the batch.
func (d *Dispatcher) DispatchAll(ctx context.Context, kind core.NotificationKind, messages []Message) BatchResult {
	var result BatchResult
	for i, msg := range messages {
		if i > 0 {
			d.sleep(recipientDelay)
		}
		outcome, err := d.Dispatch(ctx, msg.MemberID, kind, msg.Text)
		if err != nil {
			d.logger.Error("notification delivery failed", "member", msg.MemberID, "kind", kind, "error", err)
		}
		switch outcome {
		case OutcomeSent:
			result.Sent++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Failed++
		}
	}
	d.logger.Info("notification batch done",
		"kind", kind,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result
}
