// Package telegram is the chat surface: command handling, free-text entry
// recording with confirm/cancel buttons, and outbound notification delivery.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"duit/internal/categorizer"
	"duit/internal/core"
	"duit/internal/ledger"
	"duit/internal/members"
	"duit/internal/pending"
	"duit/internal/prefs"
	"duit/internal/report"
	"duit/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackSave   = "save_"
	callbackCancel = "cancel_"
	callbackPref   = "pref_"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	registry *members.Registry
	entries  *services.EntryService
	prefs    *prefs.Store
	querier  ledger.Querier
	drafts   *pending.Store
	location *time.Location
	sheetURL string
	logger   *slog.Logger

	now func() time.Time
}

func NewBot(
	token string,
	registry *members.Registry,
	entries *services.EntryService,
	prefStore *prefs.Store,
	querier ledger.Querier,
	drafts *pending.Store,
	location *time.Location,
	spreadsheetID string,
	logger *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	sheetURL := ""
	if spreadsheetID != "" {
		sheetURL = "https://docs.google.com/spreadsheets/d/" + spreadsheetID
	}

	return &Bot{
		api:      api,
		registry: registry,
		entries:  entries,
		prefs:    prefStore,
		querier:  querier,
		drafts:   drafts,
		location: location,
		sheetURL: sheetURL,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Send delivers a notification to a member. Satisfies the dispatcher's
// transport contract.
func (b *Bot) Send(ctx context.Context, recipientID, text string) error {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad recipient id %q: %w", recipientID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Run consumes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, userID)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	b.handleFreeText(ctx, msg, userID)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID string) {
	command := msg.Command()

	// Everything except onboarding needs a registered member.
	if command != "start" && command != "register" && !b.registry.IsAuthorized(ctx, userID) {
		b.reply(msg.Chat.ID, "🔒 Kamu belum terdaftar. Kirim /register dulu ya.")
		return
	}

	switch command {
	case "start":
		b.reply(msg.Chat.ID, startText)
	case "register":
		b.cmdRegister(ctx, msg, userID)
	case "members":
		b.cmdMembers(ctx, msg.Chat.ID)
	case "whoami":
		b.cmdWhoami(ctx, msg.Chat.ID, userID)
	case "settings":
		b.cmdSettings(ctx, msg.Chat.ID, userID)
	case "myreport":
		b.cmdDailyReport(ctx, msg.Chat.ID, userID)
	case "mystats":
		b.cmdMonthlyReport(ctx, msg.Chat.ID, userID)
	case "familyreport":
		b.cmdDailyReport(ctx, msg.Chat.ID, "")
	case "familystats":
		b.cmdFamilyStats(ctx, msg.Chat.ID)
	case "sheet":
		b.cmdSheet(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "❓ Perintah tidak dikenal. Kirim /start untuk daftar perintah.")
	}
}

func (b *Bot) cmdRegister(ctx context.Context, msg *tgbotapi.Message, userID string) {
	name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	m, first, err := b.registry.Register(ctx, userID, name)
	if errors.Is(err, members.ErrAlreadyRegistered) {
		b.reply(msg.Chat.ID, "✅ Kamu sudah terdaftar.")
		return
	}
	if err != nil {
		b.logger.Error("register member", "member", userID, "error", err)
		b.reply(msg.Chat.ID, "⚠️ Gagal mendaftar, coba lagi nanti.")
		return
	}

	if first {
		b.reply(msg.Chat.ID, fmt.Sprintf("🎉 Selamat datang, %s! Kamu terdaftar sebagai *admin* keluarga.", m.DisplayName))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("🎉 Selamat datang, %s! Kamu terdaftar sebagai anggota keluarga.", m.DisplayName))
}

func (b *Bot) cmdMembers(ctx context.Context, chatID int64) {
	list, err := b.registry.List(ctx)
	if err != nil {
		b.logger.Error("list members", "error", err)
		b.reply(chatID, "⚠️ Gagal mengambil daftar anggota.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👨‍👩‍👧‍👦 *Anggota Keluarga (%d)*\n", len(list))
	for i, m := range list {
		role := ""
		if m.Role == core.RoleAdmin {
			role = " 👑"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", i+1, m.DisplayName, role)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) cmdWhoami(ctx context.Context, chatID int64, userID string) {
	m, err := b.registry.Get(ctx, userID)
	if err != nil {
		b.reply(chatID, "⚠️ Data kamu tidak ditemukan.")
		return
	}
	role := "Anggota"
	if m.Role == core.RoleAdmin {
		role = "Admin 👑"
	}
	b.reply(chatID, fmt.Sprintf("👤 *%s*\nPeran: %s\nBergabung: %s",
		m.DisplayName, role, m.JoinedAt.In(b.location).Format("2 Jan 2006")))
}

func (b *Bot) cmdSettings(ctx context.Context, chatID int64, userID string) {
	p, err := b.prefs.Get(ctx, userID)
	if err != nil {
		b.logger.Error("load preferences", "member", userID, "error", err)
		b.reply(chatID, "⚠️ Gagal memuat pengaturan.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🔔 *Pengaturan Notifikasi*\nKetuk untuk mengubah:")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = settingsKeyboard(p)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send settings", "error", err)
	}
}

func (b *Bot) cmdDailyReport(ctx context.Context, chatID int64, ownerID string) {
	today := core.DateOf(b.now().In(b.location))
	summary, err := report.DailySummary(ctx, b.querier, today, ownerID)
	if err != nil {
		b.logger.Error("daily report", "member", ownerID, "error", err)
		b.reply(chatID, "⚠️ Gagal mengambil data laporan.")
		return
	}
	if summary.Empty() {
		b.reply(chatID, "📭 Belum ada transaksi hari ini.")
		return
	}

	name := ""
	if ownerID != "" {
		name = b.registry.DisplayName(ctx, ownerID)
	}
	b.reply(chatID, report.DetailedDaily(summary, name))
}

func (b *Bot) cmdMonthlyReport(ctx context.Context, chatID int64, ownerID string) {
	now := b.now().In(b.location)
	summary, err := report.MonthlySummary(ctx, b.querier, int(now.Month()), now.Year(), ownerID)
	if err != nil {
		b.logger.Error("monthly report", "member", ownerID, "error", err)
		b.reply(chatID, "⚠️ Gagal mengambil data laporan.")
		return
	}
	if summary.Empty() {
		b.reply(chatID, "📭 Belum ada transaksi bulan ini.")
		return
	}

	name := ""
	if ownerID != "" {
		name = b.registry.DisplayName(ctx, ownerID)
	}
	b.reply(chatID, report.DetailedMonthly(summary, name))
}

func (b *Bot) cmdFamilyStats(ctx context.Context, chatID int64) {
	list, err := b.registry.List(ctx)
	if err != nil {
		b.logger.Error("list members", "error", err)
		b.reply(chatID, "⚠️ Gagal mengambil daftar anggota.")
		return
	}

	now := b.now().In(b.location)
	month, year := int(now.Month()), now.Year()

	var stats []core.CategoryAmount
	for _, m := range list {
		summary, err := report.MonthlySummary(ctx, b.querier, month, year, m.ID)
		if err != nil {
			b.logger.Error("member stats", "member", m.ID, "error", err)
			continue
		}
		stats = append(stats, core.CategoryAmount{Name: m.DisplayName, Amount: summary.TotalExpense})
	}
	if len(stats) == 0 {
		b.reply(chatID, "📭 Belum ada data bulan ini.")
		return
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Amount.Cmp(stats[j].Amount) > 0
	})
	b.reply(chatID, report.MemberComparison(month, year, stats))
}

func (b *Bot) cmdSheet(chatID int64) {
	if b.sheetURL == "" {
		b.reply(chatID, "📄 Spreadsheet belum dikonfigurasi.")
		return
	}
	b.reply(chatID, "📄 Spreadsheet keluarga:\n"+b.sheetURL)
}

// handleFreeText parses a chat line into an entry draft and asks for
// confirmation. The entry is only recorded when the user taps save.
func (b *Bot) handleFreeText(ctx context.Context, msg *tgbotapi.Message, userID string) {
	if !b.registry.IsAuthorized(ctx, userID) {
		b.reply(msg.Chat.ID, "🔒 Kamu belum terdaftar. Kirim /register dulu ya.")
		return
	}

	draft, err := categorizer.ParseText(msg.Text)
	if errors.Is(err, categorizer.ErrNoAmount) {
		b.reply(msg.Chat.ID, "🤔 Aku tidak menemukan nominalnya.\nContoh: `makan siang 50rb` atau `gaji 5 juta`")
		return
	}
	if err != nil {
		b.logger.Error("parse entry text", "error", err)
		return
	}

	token := b.drafts.Put(userID, draft)
	preview := core.LedgerEntry{
		Kind:        draft.Kind,
		Amount:      draft.Amount,
		Description: draft.Description,
	}

	confirm := tgbotapi.NewMessage(msg.Chat.ID, report.EntryConfirmation(preview, draft.Category.Display()))
	confirm.ParseMode = tgbotapi.ModeMarkdown
	confirm.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Simpan", callbackSave+token),
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callbackCancel+token),
		),
	)
	if _, err := b.api.Send(confirm); err != nil {
		b.logger.Error("send confirmation", "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil {
		return
	}
	userID := strconv.FormatInt(cq.From.ID, 10)

	switch {
	case strings.HasPrefix(cq.Data, callbackSave):
		b.confirmDraft(ctx, cq, userID, strings.TrimPrefix(cq.Data, callbackSave))
	case strings.HasPrefix(cq.Data, callbackCancel):
		b.cancelDraft(cq, userID, strings.TrimPrefix(cq.Data, callbackCancel))
	case strings.HasPrefix(cq.Data, callbackPref):
		b.togglePreference(ctx, cq, userID, strings.TrimPrefix(cq.Data, callbackPref))
	}
}

func (b *Bot) confirmDraft(ctx context.Context, cq *tgbotapi.CallbackQuery, userID, token string) {
	draft, ok := b.drafts.Take(token, userID)
	if !ok {
		b.answer(cq.ID, "Draf sudah kedaluwarsa")
		b.edit(cq.Message.Chat.ID, cq.Message.MessageID, "⌛ Draf sudah kedaluwarsa. Kirim ulang transaksinya ya.")
		return
	}

	now := b.now().In(b.location)
	entry := core.LedgerEntry{
		Timestamp:   now,
		OccurredOn:  core.DateOf(now),
		Kind:        draft.Kind,
		Category:    draft.Category.Key,
		Amount:      draft.Amount,
		Description: draft.Description,
		OwnerID:     userID,
		OwnerName:   b.registry.DisplayName(ctx, userID),
	}

	id, err := b.entries.RecordEntry(ctx, entry)
	if err != nil {
		b.logger.Error("record entry", "member", userID, "error", err)
		b.answer(cq.ID, "Gagal menyimpan")
		b.edit(cq.Message.Chat.ID, cq.Message.MessageID, "⚠️ Gagal menyimpan transaksi, coba lagi.")
		return
	}

	b.logger.Info("entry recorded", "id", id, "member", userID, "category", entry.Category)
	b.answer(cq.ID, "Tersimpan!")
	b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
		fmt.Sprintf("✅ Tersimpan: %s %s (%s)",
			report.FormatCurrency(entry.Amount), draft.Category.Display(), entry.Description))
}

func (b *Bot) cancelDraft(cq *tgbotapi.CallbackQuery, userID, token string) {
	b.drafts.Cancel(token, userID)
	b.answer(cq.ID, "Dibatalkan")
	b.edit(cq.Message.Chat.ID, cq.Message.MessageID, "🚫 Transaksi dibatalkan.")
}

func (b *Bot) togglePreference(ctx context.Context, cq *tgbotapi.CallbackQuery, userID, kindKey string) {
	current, err := b.prefs.Get(ctx, userID)
	if err != nil {
		b.logger.Error("load preferences", "member", userID, "error", err)
		b.answer(cq.ID, "Gagal memuat pengaturan")
		return
	}

	var patch core.PreferencePatch
	switch core.NotificationKind(kindKey) {
	case core.NotifyDaily:
		v := !current.Daily
		patch.Daily = &v
	case core.NotifyWeekly:
		v := !current.Weekly
		patch.Weekly = &v
	case core.NotifyMonthly:
		v := !current.Monthly
		patch.Monthly = &v
	default:
		return
	}

	updated, err := b.prefs.Set(ctx, userID, patch)
	if err != nil {
		b.logger.Error("update preferences", "member", userID, "error", err)
		b.answer(cq.ID, "Gagal menyimpan pengaturan")
		return
	}

	b.answer(cq.ID, "Pengaturan diperbarui")
	markup := settingsKeyboard(updated)
	edit := tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID, markup)
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Error("update settings keyboard", "error", err)
	}
}

func settingsKeyboard(p core.Preferences) tgbotapi.InlineKeyboardMarkup {
	label := func(name string, on bool) string {
		if on {
			return "🔔 " + name + ": ON"
		}
		return "🔕 " + name + ": OFF"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("Harian", p.Daily), callbackPref+string(core.NotifyDaily)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("Mingguan", p.Weekly), callbackPref+string(core.NotifyWeekly)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("Bulanan", p.Monthly), callbackPref+string(core.NotifyMonthly)),
		),
	)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send reply", "error", err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Error("answer callback", "error", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Error("edit message", "error", err)
	}
}

const startText = `👋 *Halo! Aku pencatat keuangan keluarga.*

Catat transaksi cukup dengan mengetik, misal:
` + "`makan siang 50rb`" + `
` + "`gaji 5 juta`" + `

Perintah:
/register - daftar sebagai anggota
/members - daftar anggota keluarga
/whoami - info akunmu
/settings - atur notifikasi
/myreport - laporan harianmu
/mystats - statistik bulananmu
/familyreport - laporan harian keluarga
/familystats - perbandingan pengeluaran anggota
/sheet - link spreadsheet`
