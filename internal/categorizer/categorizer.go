// Package categorizer turns free-form Indonesian chat text into a ledger
// entry draft: keyword matching picks the category, and shorthand amounts
// like "50rb" or "2jt" are expanded to rupiah.
package categorizer

import (
	"errors"
	"regexp"
	"strings"

	"duit/internal/core"

	"github.com/shopspring/decimal"
)

// Category is one recognizable spending or income bucket.
type Category struct {
	Key      string
	Name     string
	Icon     string
	Keywords []string
}

var expenseCategories = []Category{
	{Key: "MAKANAN", Name: "Makanan & Minuman", Icon: "🍔", Keywords: []string{
		"makan", "makanan", "minum", "sarapan", "siang", "malam", "nasi", "ayam",
		"bakso", "mie", "kopi", "teh", "jajan", "snack", "gofood", "grabfood", "warteg", "resto",
	}},
	{Key: "TRANSPORT", Name: "Transportasi", Icon: "🚗", Keywords: []string{
		"bensin", "transport", "ojek", "gojek", "grab", "taksi", "parkir", "tol",
		"bus", "kereta", "krl", "mrt", "angkot", "motor", "mobil", "servis",
	}},
	{Key: "BELANJA", Name: "Belanja", Icon: "🛒", Keywords: []string{
		"belanja", "supermarket", "indomaret", "alfamart", "pasar",
		"tokopedia", "shopee", "lazada", "online",
	}},
	{Key: "TAGIHAN", Name: "Tagihan", Icon: "🧾", Keywords: []string{
		"listrik", "air", "pdam", "internet", "wifi", "pulsa", "paket", "tagihan",
		"pln", "bpjs", "cicilan", "sewa", "kontrakan", "iuran",
	}},
	{Key: "HIBURAN", Name: "Hiburan", Icon: "🎮", Keywords: []string{
		"nonton", "bioskop", "film", "game", "netflix", "spotify", "liburan",
		"wisata", "hiburan", "karaoke", "konser",
	}},
	{Key: "KESEHATAN", Name: "Kesehatan", Icon: "💊", Keywords: []string{
		"obat", "dokter", "rumah sakit", "klinik", "apotek", "vitamin", "kesehatan", "periksa",
	}},
	{Key: "PENDIDIKAN", Name: "Pendidikan", Icon: "📚", Keywords: []string{
		"sekolah", "kuliah", "buku", "kursus", "les", "spp", "pendidikan", "seminar",
	}},
	{Key: "PAKAIAN", Name: "Pakaian", Icon: "👕", Keywords: []string{
		"baju", "celana", "sepatu", "sandal", "pakaian", "tas", "jaket", "kaos",
	}},
	{Key: "LAINNYA", Name: "Lainnya", Icon: "📦", Keywords: nil},
}

var incomeCategories = []Category{
	{Key: "GAJI", Name: "Gaji", Icon: "💰", Keywords: []string{"gaji", "gajian", "salary"}},
	{Key: "FREELANCE", Name: "Freelance", Icon: "💻", Keywords: []string{"freelance", "proyek", "project", "honor"}},
	{Key: "BISNIS", Name: "Bisnis", Icon: "🏪", Keywords: []string{"bisnis", "jualan", "dagang", "untung", "omzet"}},
	{Key: "INVESTASI", Name: "Investasi", Icon: "📈", Keywords: []string{"investasi", "dividen", "saham", "reksadana", "bunga"}},
	{Key: "HADIAH", Name: "Hadiah", Icon: "🎁", Keywords: []string{"hadiah", "kado", "thr", "bonus", "angpao"}},
	{Key: "LAINNYA", Name: "Lainnya", Icon: "📦", Keywords: nil},
}

var incomeMarkers = []string{
	"gaji", "gajian", "salary", "freelance", "honor", "bonus", "thr",
	"untung", "dividen", "hadiah", "angpao", "pemasukan", "terima", "dapat duit", "dapat uang",
}

// ErrNoAmount means the text carried no parsable rupiah amount.
var ErrNoAmount = errors.New("no amount found in text")

// Draft is a categorized entry before the user confirms it.
type Draft struct {
	Kind        core.EntryKind
	Category    Category
	Amount      decimal.Decimal
	Description string
}

// amountPattern matches "50000", "50.000", "50rb", "50 ribu", "1,5jt", "2 juta".
var amountPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)*)\s*(rb|ribu|k|jt|juta)?`)

// ParseText extracts an amount, category and description from a chat line.
func ParseText(text string) (Draft, error) {
	amount, matched, err := parseAmount(text)
	if err != nil {
		return Draft{}, err
	}

	kind := detectKind(text)
	category := Detect(kind, text)

	desc := strings.TrimSpace(strings.Replace(text, matched, "", 1))
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		desc = category.Name
	}

	return Draft{Kind: kind, Category: category, Amount: amount, Description: desc}, nil
}

// Detect picks the category whose keyword appears first in the text, falling
// back to LAINNYA.
func Detect(kind core.EntryKind, text string) Category {
	lower := strings.ToLower(text)
	cats := expenseCategories
	if kind == core.Income {
		cats = incomeCategories
	}
	for _, cat := range cats {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return cats[len(cats)-1]
}

// Categories lists the selectable categories for a kind, LAINNYA last.
func Categories(kind core.EntryKind) []Category {
	if kind == core.Income {
		return incomeCategories
	}
	return expenseCategories
}

// Lookup finds a category by key for a kind.
func Lookup(kind core.EntryKind, key string) (Category, bool) {
	for _, cat := range Categories(kind) {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

// Display renders a category as shown in chat, e.g. "🍔 Makanan & Minuman".
func (c Category) Display() string {
	return c.Icon + " " + c.Name
}

func detectKind(text string) core.EntryKind {
	lower := strings.ToLower(text)
	for _, marker := range incomeMarkers {
		if strings.Contains(lower, marker) {
			return core.Income
		}
	}
	return core.Expense
}

func parseAmount(text string) (decimal.Decimal, string, error) {
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		digits, suffix := m[1], strings.ToLower(m[2])

		var num decimal.Decimal
		var err error
		switch suffix {
		case "rb", "ribu", "k", "jt", "juta":
			// "1,5jt" uses a decimal comma; normalize before scaling.
			num, err = decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		default:
			// Bare numbers use dots as thousand separators ("50.000").
			num, err = decimal.NewFromString(strings.NewReplacer(".", "", ",", "").Replace(digits))
		}
		if err != nil {
			continue
		}

		switch suffix {
		case "rb", "ribu", "k":
			num = num.Mul(decimal.NewFromInt(1000))
		case "jt", "juta":
			num = num.Mul(decimal.NewFromInt(1000000))
		}

		if num.Sign() > 0 {
			return num, m[0], nil
		}
	}
	return decimal.Decimal{}, "", ErrNoAmount
}
