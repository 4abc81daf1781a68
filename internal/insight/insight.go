// Package insight produces short Indonesian commentary for monthly reports.
// A Gemini model writes the text when configured; otherwise a deterministic
// rule-based fallback covers the same ground.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"duit/internal/core"
	"duit/internal/report"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const modelName = "gemini-1.5-flash"

type Generator struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGenerator builds a Gemini-backed generator. An empty API key returns a
// nil generator, which callers treat as "fallback only".
func NewGenerator(ctx context.Context, apiKey string, logger *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{client: client, logger: logger}, nil
}

func (g *Generator) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Monthly asks the model for commentary on this month versus last. On any
// model failure it logs and falls back to the deterministic text, so the
// monthly report always carries an insight section.
func (g *Generator) Monthly(ctx context.Context, current, previous core.WindowSummary) string {
	if g == nil || g.client == nil {
		return Fallback(current, previous)
	}

	model := g.client.GenerativeModel(modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(monthlyPrompt(current, previous)))
	if err != nil {
		g.logger.Warn("insight model call failed, using fallback", "error", err)
		return Fallback(current, previous)
	}
	text := extractText(resp)
	if text == "" {
		g.logger.Warn("insight model returned no text, using fallback")
		return Fallback(current, previous)
	}
	return text
}

func monthlyPrompt(current, previous core.WindowSummary) string {
	var b strings.Builder
	b.WriteString("Kamu adalah asisten keuangan keluarga. Berikan analisis singkat ")
	b.WriteString("(maksimal 4 kalimat, bahasa Indonesia santai) untuk laporan bulanan berikut.\n\n")
	fmt.Fprintf(&b, "Bulan ini: pengeluaran %s, pemasukan %s, %d transaksi.\n",
		report.FormatCurrency(current.TotalExpense),
		report.FormatCurrency(current.TotalIncome),
		current.EntryCount)
	fmt.Fprintf(&b, "Bulan lalu: pengeluaran %s.\n", report.FormatCurrency(previous.TotalExpense))
	b.WriteString("Pengeluaran per kategori bulan ini:\n")
	for _, c := range report.TopCategories(current, -1) {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, report.FormatCurrency(c.Amount))
	}
	b.WriteString("\nSoroti tren dibanding bulan lalu dan beri satu saran praktis.")
	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Fallback renders deterministic Indonesian commentary from the two windows.
// Same inputs always give the same text.
func Fallback(current, previous core.WindowSummary) string {
	cmp := report.CompareWindows(current, previous)

	var b strings.Builder
	b.WriteString("📊 Analisis bulan ini:\n")

	switch {
	case previous.TotalExpense.IsZero():
		b.WriteString("• Belum ada pembanding dari bulan lalu.\n")
	case cmp.PercentChange > 5:
		fmt.Fprintf(&b, "• Pengeluaran naik %.0f%% dibanding bulan lalu.\n", cmp.PercentChange)
	case cmp.PercentChange < -5:
		fmt.Fprintf(&b, "• Pengeluaran turun %.0f%% dibanding bulan lalu. Pertahankan!\n", -cmp.PercentChange)
	default:
		b.WriteString("• Pengeluaran relatif stabil dibanding bulan lalu.\n")
	}

	if cat, change, ok := biggestJump(cmp); ok {
		fmt.Fprintf(&b, "• Kategori %s melonjak %.0f%% bulan ini, perlu dicek.\n", cat, change)
	}

	if top := report.TopCategories(current, 1); len(top) > 0 && current.TotalExpense.Sign() > 0 {
		share := top[0].Amount.Div(current.TotalExpense).InexactFloat64() * 100
		fmt.Fprintf(&b, "• Pengeluaran terbesar di kategori %s (%.0f%% dari total).\n", top[0].Name, share)
	}

	b.WriteString("\n💡 Saran:\n")
	b.WriteString("• Catat setiap transaksi sekecil apa pun agar laporan tetap akurat.\n")
	b.WriteString("• Sisihkan dana darurat sebelum belanja kebutuhan sekunder.")
	return b.String()
}

// biggestJump finds the category with the largest increase above 20%,
// scanning in sorted order so ties resolve the same way every run.
func biggestJump(cmp report.Comparison) (string, float64, bool) {
	cats := make([]string, 0, len(cmp.PerCategoryChange))
	for cat := range cmp.PerCategoryChange {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var (
		bestCat    string
		bestChange float64
	)
	for _, cat := range cats {
		if change := cmp.PerCategoryChange[cat]; change > 20 && change > bestChange {
			bestCat, bestChange = cat, change
		}
	}
	return bestCat, bestChange, bestCat != ""
}
