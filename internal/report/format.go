package report

import (
	"fmt"
	"strings"

	"duit/internal/core"

	"github.com/shopspring/decimal"
)

var monthNames = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian month name, 1-12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "Unknown"
	}
	return monthNames[month-1]
}

// FormatCurrency renders an amount as rupiah with dot thousand separators.
func FormatCurrency(amount decimal.Decimal) string {
	neg := amount.Sign() < 0
	digits := amount.Abs().Round(0).String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}

func formatDate(d core.Date) string {
	return fmt.Sprintf("%d %s %d", d.Day(), MonthName(d.Month()), d.Year())
}

// DailyNotification renders the scheduled end-of-day summary.
func DailyNotification(s core.WindowSummary, userName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌙 *Rekap Harian* - %s\n\n", formatDate(s.To))
	fmt.Fprintf(&b, "💰 Total Pengeluaran: %s\n", FormatCurrency(s.TotalExpense))
	fmt.Fprintf(&b, "📝 Transaksi: %d\n", s.EntryCount)

	if top := TopCategories(s, 1); len(top) > 0 {
		fmt.Fprintf(&b, "🏆 Kategori Terbanyak: %s (%s)\n", top[0].Name, FormatCurrency(top[0].Amount))
	}
	if s.EntryCount > 10 {
		b.WriteString("\n⚠️ Banyak transaksi hari ini!\n")
	}
	fmt.Fprintf(&b, "\n💤 Selamat istirahat, %s!", userName)
	return b.String()
}

// WeeklyNotification renders the scheduled weekly summary with a comparison
// against the preceding week.
func WeeklyNotification(thisWeek, lastWeek core.WindowSummary) string {
	cmp := CompareWindows(thisWeek, lastWeek)

	arrow := "→"
	switch {
	case cmp.PercentChange > 0:
		arrow = "↑"
	case cmp.PercentChange < 0:
		arrow = "↓"
	}

	var b strings.Builder
	b.WriteString("📊 *Rekap Mingguan*\n")
	fmt.Fprintf(&b, "📅 %s - %s\n\n", formatDate(thisWeek.From), formatDate(thisWeek.To))
	fmt.Fprintf(&b, "💸 Minggu Ini: %s\n", FormatCurrency(thisWeek.TotalExpense))
	fmt.Fprintf(&b, "📈 vs Minggu Lalu: %s %.1f%%\n\n", arrow, abs(cmp.PercentChange))

	if top := TopCategories(thisWeek, 3); len(top) > 0 {
		b.WriteString("🏆 *Top 3 Kategori:*\n")
		for i, cat := range top {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, cat.Name, FormatCurrency(cat.Amount))
		}
	}

	if cmp.PercentChange > 20 {
		b.WriteString("\n💡 Pengeluaran naik signifikan minggu ini!")
	} else if cmp.PercentChange < -20 {
		b.WriteString("\n👍 Pengeluaran turun signifikan! Pertahankan!")
	}
	return b.String()
}

// MonthlyNotification renders the scheduled monthly insight message. The
// insight text is either AI-generated or the deterministic fallback; this
// function does not care which.
func MonthlyNotification(s core.WindowSummary, insights string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *Insights Bulanan - %s %d*\n\n", MonthName(s.From.Month()), s.From.Year())
	fmt.Fprintf(&b, "💰 Total: %s\n", FormatCurrency(s.TotalExpense))
	fmt.Fprintf(&b, "📊 Transaksi: %d\n\n", s.EntryCount)
	b.WriteString(insights)
	b.WriteString("\n\n📈 *Spending by Category:*\n")

	for _, cat := range TopCategories(s, 5) {
		pct := 0.0
		if !s.TotalExpense.IsZero() {
			pct = cat.Amount.Div(s.TotalExpense).InexactFloat64() * 100
		}
		fmt.Fprintf(&b, "• %s: %s (%.1f%%)\n", cat.Name, FormatCurrency(cat.Amount), pct)
	}

	next := s.From.Month() + 1
	if next > 12 {
		next = 1
	}
	fmt.Fprintf(&b, "\n📅 Siap untuk %s!", MonthName(next))
	return b.String()
}

// DetailedDaily renders the on-demand daily report with the entry listing
// in the summary's amount-descending order.
func DetailedDaily(s core.WindowSummary, userName string) string {
	var b strings.Builder
	b.WriteString("📊 *Ringkasan Harian*")
	if userName != "" {
		fmt.Fprintf(&b, " - %s", userName)
	}
	fmt.Fprintf(&b, "\n📅 %s\n\n", formatDate(s.To))
	fmt.Fprintf(&b, "💸 Total Pengeluaran: %s\n", FormatCurrency(s.TotalExpense))
	fmt.Fprintf(&b, "💰 Total Pemasukan: %s\n", FormatCurrency(s.TotalIncome))
	fmt.Fprintf(&b, "💵 Saldo: %s\n\n", FormatCurrency(s.Balance()))
	fmt.Fprintf(&b, "📋 *Transaksi (%d)*\n━━━━━━━━━━━━━━━\n", s.EntryCount)

	for i, e := range s.Entries {
		icon := "💸"
		if e.Kind == core.Income {
			icon = "💰"
		}
		fmt.Fprintf(&b, "\n%d. %s %s - %s", i+1, icon, FormatCurrency(e.Amount), e.Category)
		if e.Description != "" {
			fmt.Fprintf(&b, "\n   📝 %s", e.Description)
		}
	}
	return b.String()
}

// DetailedMonthly renders the on-demand monthly report with the per-category
// expense breakdown.
func DetailedMonthly(s core.WindowSummary, userName string) string {
	var b strings.Builder
	b.WriteString("📊 *Ringkasan Bulanan*")
	if userName != "" {
		fmt.Fprintf(&b, " - %s", userName)
	}
	fmt.Fprintf(&b, "\n📅 %s %d\n\n", MonthName(s.From.Month()), s.From.Year())
	fmt.Fprintf(&b, "💸 Total Pengeluaran: %s\n", FormatCurrency(s.TotalExpense))
	fmt.Fprintf(&b, "💰 Total Pemasukan: %s\n", FormatCurrency(s.TotalIncome))
	fmt.Fprintf(&b, "💵 Saldo: %s\n\n", FormatCurrency(s.Balance()))
	b.WriteString("📁 *Pengeluaran per Kategori*\n━━━━━━━━━━━━━━━")

	cats := TopCategories(s, -1)
	if len(cats) == 0 {
		b.WriteString("\nBelum ada data")
		return b.String()
	}
	for _, cat := range cats {
		pct := 0.0
		if !s.TotalExpense.IsZero() {
			pct = cat.Amount.Div(s.TotalExpense).InexactFloat64() * 100
		}
		fmt.Fprintf(&b, "\n%s: %s (%.1f%%)", cat.Name, FormatCurrency(cat.Amount), pct)
	}
	return b.String()
}

// MemberComparison ranks members by monthly expense, medals for the top three.
func MemberComparison(month, year int, stats []core.CategoryAmount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👨‍👩‍👧‍👦 *Perbandingan Pengeluaran Member*\n📅 %s %d\n\n", MonthName(month), year)

	total := decimal.Zero
	for _, s := range stats {
		total = total.Add(s.Amount)
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for i, s := range stats {
		emoji := "📊"
		if i < len(medals) {
			emoji = medals[i]
		}
		pct := 0.0
		if !total.IsZero() {
			pct = s.Amount.Div(total).InexactFloat64() * 100
		}
		fmt.Fprintf(&b, "%s %s: %s (%.1f%%)\n", emoji, s.Name, FormatCurrency(s.Amount), pct)
	}
	fmt.Fprintf(&b, "\n💰 Total Keluarga: %s", FormatCurrency(total))
	return b.String()
}

// EntryConfirmation renders the save/cancel prompt for a parsed entry.
func EntryConfirmation(e core.LedgerEntry, categoryDisplay string) string {
	kind := "💸 Pengeluaran"
	if e.Kind == core.Income {
		kind = "💰 Pemasukan"
	}
	desc := e.Description
	if desc == "" {
		desc = "-"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n━━━━━━━━━━━━━━━\n", kind)
	fmt.Fprintf(&b, "💵 *Jumlah:* %s\n", FormatCurrency(e.Amount))
	fmt.Fprintf(&b, "📁 *Kategori:* %s\n", categoryDisplay)
	fmt.Fprintf(&b, "📝 *Deskripsi:* %s\n", desc)
	b.WriteString("━━━━━━━━━━━━━━━\n\nSimpan transaksi ini?")
	return b.String()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
