package categorizer

import (
	"testing"

	"duit/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextAmounts(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"makan siang 50000", "50000"},
		{"makan siang 50.000", "50000"},
		{"bensin 100rb", "100000"},
		{"belanja bulanan 250 ribu", "250000"},
		{"gaji 5jt", "5000000"},
		{"bonus 2 juta", "2000000"},
		{"nonton 35k", "35000"},
		{"thr 1,5jt", "1500000"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			draft, err := ParseText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.Amount.String())
		})
	}
}

func TestParseTextNoAmount(t *testing.T) {
	_, err := ParseText("makan siang enak banget")
	assert.ErrorIs(t, err, ErrNoAmount)
}

func TestParseTextKindAndCategory(t *testing.T) {
	tests := []struct {
		text     string
		kind     core.EntryKind
		category string
	}{
		{"makan siang 50rb", core.Expense, "MAKANAN"},
		{"bensin motor 100rb", core.Expense, "TRANSPORT"},
		{"belanja di indomaret 75rb", core.Expense, "BELANJA"},
		{"bayar listrik 300rb", core.Expense, "TAGIHAN"},
		{"nonton bioskop 50rb", core.Expense, "HIBURAN"},
		{"beli obat 40rb", core.Expense, "KESEHATAN"},
		{"bayar spp 500rb", core.Expense, "PENDIDIKAN"},
		{"beli sepatu 200rb", core.Expense, "PAKAIAN"},
		{"sumbangan 100rb", core.Expense, "LAINNYA"},
		{"gajian bulan ini 5jt", core.Income, "GAJI"},
		{"honor proyek 2jt", core.Income, "FREELANCE"},
		{"untung jualan 500rb", core.Income, "BISNIS"},
		{"dividen saham 300rb", core.Income, "INVESTASI"},
		{"thr lebaran 1jt", core.Income, "HADIAH"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			draft, err := ParseText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, draft.Kind)
			assert.Equal(t, tt.category, draft.Category.Key)
		})
	}
}

func TestParseTextDescription(t *testing.T) {
	draft, err := ParseText("makan siang 50rb")
	require.NoError(t, err)
	assert.Equal(t, "makan siang", draft.Description)

	// Amount-only text falls back to the category name.
	draft, err = ParseText("50rb")
	require.NoError(t, err)
	assert.Equal(t, "Lainnya", draft.Description)
}

func TestLookup(t *testing.T) {
	cat, ok := Lookup(core.Expense, "MAKANAN")
	require.True(t, ok)
	assert.Equal(t, "🍔 Makanan & Minuman", cat.Display())

	_, ok = Lookup(core.Income, "MAKANAN")
	assert.False(t, ok)
}

func TestCategoriesEndWithFallback(t *testing.T) {
	for _, kind := range []core.EntryKind{core.Expense, core.Income} {
		cats := Categories(kind)
		require.NotEmpty(t, cats)
		assert.Equal(t, "LAINNYA", cats[len(cats)-1].Key)
	}
}
