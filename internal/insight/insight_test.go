package insight

import (
	"context"
	"strings"
	"testing"

	"duit/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func summary(expense int64, byCategory map[string]int64) core.WindowSummary {
	s := core.WindowSummary{
		TotalExpense: decimal.NewFromInt(expense),
		ByCategory:   map[string]decimal.Decimal{},
	}
	for cat, amount := range byCategory {
		s.ByCategory[cat] = decimal.NewFromInt(amount)
	}
	return s
}

func TestFallbackIsDeterministic(t *testing.T) {
	current := summary(900000, map[string]int64{"MAKANAN": 500000, "TRANSPORT": 400000})
	previous := summary(600000, map[string]int64{"MAKANAN": 300000, "TRANSPORT": 300000})

	first := Fallback(current, previous)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Fallback(current, previous))
	}
}

func TestFallbackTrendDirection(t *testing.T) {
	base := summary(1000000, map[string]int64{"MAKANAN": 1000000})

	up := Fallback(summary(1500000, map[string]int64{"MAKANAN": 1500000}), base)
	assert.Contains(t, up, "naik 50%")

	down := Fallback(summary(500000, map[string]int64{"MAKANAN": 500000}), base)
	assert.Contains(t, down, "turun 50%")

	flat := Fallback(summary(1020000, map[string]int64{"MAKANAN": 1020000}), base)
	assert.Contains(t, flat, "stabil")
}

func TestFallbackNoBaseline(t *testing.T) {
	current := summary(250000, map[string]int64{"BELANJA": 250000})
	text := Fallback(current, core.WindowSummary{ByCategory: map[string]decimal.Decimal{}})

	assert.Contains(t, text, "Belum ada pembanding")
	assert.Contains(t, text, "BELANJA")
}

func TestFallbackFlagsCategoryJump(t *testing.T) {
	current := summary(800000, map[string]int64{"HIBURAN": 500000, "MAKANAN": 300000})
	previous := summary(600000, map[string]int64{"HIBURAN": 200000, "MAKANAN": 400000})

	text := Fallback(current, previous)
	assert.Contains(t, text, "HIBURAN")
	assert.Contains(t, text, "melonjak")
	assert.False(t, strings.Contains(text, "MAKANAN melonjak"))
}

func TestNilGeneratorUsesFallback(t *testing.T) {
	var g *Generator
	current := summary(100000, map[string]int64{"MAKANAN": 100000})
	previous := summary(100000, map[string]int64{"MAKANAN": 100000})

	assert.Equal(t, Fallback(current, previous), g.Monthly(context.Background(), current, previous))
}
