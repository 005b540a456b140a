package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/money"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
)

// stubScorer returns a fixed score for one canonical name and 0 otherwise.
type stubScorer struct {
	name  string
	score float64
}

func (s stubScorer) Ratio(a, b string) float64 { return s.PartialRatio(a, b) }

func (s stubScorer) PartialRatio(_, b string) float64 {
	if b == s.name {
		return s.score
	}
	return 0
}

const wholeFoods = `WHOLE FOODS MARKET
123 Main St
Date: 01/15/2024
Product 1 4.99
Product 2 5.99
Product 3 6.99
Product 4 7.99
Product 5 3.99
SUBTOTAL 29.95
TOTAL $29.95
VISA 29.95`

func TestMerchant_Alias(t *testing.T) {
	f := Merchant(wholeFoods, patterns.Default(), nil)
	require.True(t, f.Present())
	assert.Equal(t, "Whole Foods Market", *f.Value)
	assert.Equal(t, 1.0, f.Confidence)
}

func TestMerchant_AliasOutsideWindow(t *testing.T) {
	text := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nCOSTCO"
	assert.False(t, Merchant(text, patterns.Default(), nil).Present())
}

func TestMerchant_FuzzyBoundary(t *testing.T) {
	text := "SOMETHING ELSE\nReceipt"
	tests := []struct {
		score float64
		found bool
	}{
		{0.79, false},
		{0.80, false},
		{0.81, true},
	}
	for _, tt := range tests {
		f := Merchant(text, patterns.Default(), stubScorer{name: "costco", score: tt.score})
		assert.Equal(t, tt.found, f.Present(), "score %v", tt.score)
		if tt.found {
			assert.Equal(t, "Costco", *f.Value)
			assert.Equal(t, tt.score, f.Confidence)
		}
	}
}

func TestMerchant_FuzzyReal(t *testing.T) {
	f := Merchant("TRADER J0ES\n#552\n", patterns.Default(), fuzzy.Levenshtein{})
	require.True(t, f.Present())
	assert.Equal(t, "Trader Joe's", *f.Value)
	assert.Greater(t, f.Confidence, 0.80)
	assert.Less(t, f.Confidence, 1.0)
}

func TestMerchant_ShortNoiseLines(t *testing.T) {
	const body = "\nCorner Deli\n01/15/2024\nSandwich 5.99"
	tests := []struct {
		name string
		head string
	}{
		{"single letter", "e"},
		{"two letters", "st"},
		{"three letters", "mar"},
		{"fragment of walmart", "mart"},
		{"fragment of food lion", "food"},
		{"fragment of whole foods market", "foods"},
		{"punctuation", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Merchant(tt.head+body, patterns.Default(), fuzzy.Default())
			assert.False(t, f.Present(), "got %v", f.Value)
		})
	}
}

func TestMerchant_ShortLinesNeverReachScorer(t *testing.T) {
	// the stub would accept anything scored against costco
	f := Merchant("st\nco", patterns.Default(), stubScorer{name: "costco", score: 1})
	assert.False(t, f.Present())

	f = Merchant("st\ncostc", patterns.Default(), stubScorer{name: "costco", score: 0.9})
	require.True(t, f.Present())
	assert.Equal(t, "Costco", *f.Value)
}

func TestMerchant_NoisyHeaderStillMatches(t *testing.T) {
	f := Merchant("**\nCOSTC0 WH0LESALE\n#482", patterns.Default(), fuzzy.Default())
	require.True(t, f.Present())
	assert.Equal(t, "Costco", *f.Value)
	assert.Greater(t, f.Confidence, MerchantFuzzyThreshold)
}

func TestMerchant_FuzzyDisabled(t *testing.T) {
	assert.False(t, Merchant("TRADER J0ES", patterns.Default(), nil).Present())
}

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
		conf float64
	}{
		{"us slash", "Date: 01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1.0},
		{"short year", "1/5/24 10:32", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 1.0},
		{"day first slash", "15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1.0},
		{"iso", "2024-01-15 12:00", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1.0},
		{"dash day first", "15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1.0},
		{"dash month first", "01-15-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1.0},
		{"month abbrev", "15 Jan 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 0.9},
		{"month full", "5 JANUARY 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Date("STORE\n"+tt.text, patterns.Default())
			require.True(t, f.Present())
			assert.True(t, tt.want.Equal(*f.Value), "got %v", f.Value)
			assert.Equal(t, tt.conf, f.Confidence)
		})
	}
}

func TestDate_UnparseableFallsThrough(t *testing.T) {
	f := Date("99/99/2024\n15 Mar 2024", patterns.Default())
	require.True(t, f.Present())
	assert.Equal(t, time.March, f.Value.Month())
	assert.Equal(t, 0.9, f.Confidence)

	assert.False(t, Date("no date here", patterns.Default()).Present())
}

func TestLineItems_WholeFoods(t *testing.T) {
	items, stats := LineItems(wholeFoods, patterns.Default())
	require.Len(t, items, 5)
	assert.Equal(t, "Product 1", items[0].RawName)
	assert.Equal(t, "product 1", items[0].NormalizedName)
	assert.Equal(t, "4.99", items[0].Price.Text('f'))
	assert.Equal(t, 4, items[0].LineNumber)
	assert.Nil(t, items[0].Quantity)
	assert.Equal(t, "Product 5", items[4].RawName)

	assert.Equal(t, 11, stats.LinesSeen)
	assert.Equal(t, 5, stats.LinesMatched)
	assert.Equal(t, 3, stats.LinesSkippedKeyword)
}

func TestLineItems_Shapes(t *testing.T) {
	text := "Bananas 3 @ 0.50 = 1.50\nMilk 2 3.49 6.98\nBread 2.49 F\n12345 3.00\nab 1.00\nCash 20.00"
	items, stats := LineItems(text, patterns.Default())
	require.Len(t, items, 3)

	assert.Equal(t, "Bananas", items[0].RawName)
	require.NotNil(t, items[0].Quantity)
	assert.Equal(t, "3", items[0].Quantity.Text('f'))
	assert.Equal(t, "0.50", items[0].UnitPrice.Text('f'))
	assert.Equal(t, "1.50", items[0].Price.Text('f'))

	assert.Equal(t, "Milk", items[1].RawName)
	assert.Equal(t, "2", items[1].Quantity.Text('f'))
	assert.Equal(t, "6.98", items[1].Price.Text('f'))

	assert.Equal(t, "Bread", items[2].RawName)
	assert.Nil(t, items[2].Quantity)

	assert.Equal(t, 6, stats.LinesSeen)
	assert.Equal(t, 1, stats.LinesSkippedKeyword)
}

func TestLineItems_None(t *testing.T) {
	items, stats := LineItems("Thank you\nCome again", patterns.Default())
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Equal(t, 2, stats.LinesSeen)
}

func TestTotal(t *testing.T) {
	f := Total(wholeFoods, patterns.Default())
	require.True(t, f.Present())
	assert.Equal(t, "29.95", f.Value.Text('f'))
	assert.Equal(t, 1.0, f.Confidence)
}

func TestTotal_FirstMatchWins(t *testing.T) {
	text := "Item A 5.00\nItem B 3.00\nTotal 8.00\nTotal 1.20"
	f := Total(text, patterns.Default())
	require.True(t, f.Present())
	assert.Equal(t, "8.00", f.Value.Text('f'))
}

func TestTotal_TrailerLines(t *testing.T) {
	const items = "Milk 4.99\nBread 3.50\nEggs 8.00\n"
	tests := []struct {
		name string
		text string
	}{
		{"savings after total", items + "TOTAL 16.49\nVISA 16.49\nTOTAL SAVINGS 1.20"},
		{"tips after total", items + "TOTAL 16.49\nTOTAL TIPS 2.00"},
		{"tender and change", items + "TOTAL 16.49\nCASH 20.00\nCHANGE 3.51"},
		{"discount before total", items + "Total Discount 1.00\nTOTAL 16.49"},
		{"tax before total", items + "Total Tax 0.00\nTOTAL 16.49"},
		{"you saved", items + "You saved 1.20 on this total\nTOTAL 16.49"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Total(tt.text, patterns.Default())
			require.True(t, f.Present())
			assert.Equal(t, "16.49", f.Value.Text('f'))
			assert.Equal(t, 1.0, f.Confidence)
		})
	}
}

func TestTotal_FallbackPatterns(t *testing.T) {
	f := Total("Item 5.00\nAmount Due: $5.00", patterns.Default())
	require.True(t, f.Present())
	assert.Equal(t, "5.00", f.Value.Text('f'))
	assert.Equal(t, 0.8, f.Confidence)

	f = Total("Item 5.00\nBalance Due 5.00", patterns.Default())
	require.True(t, f.Present())
	assert.Equal(t, 0.8, f.Confidence)

	assert.False(t, Total("Subtotal 5.00", patterns.Default()).Present())
}

func TestTax(t *testing.T) {
	text := "Item 10.00\nTax 0.80\nTotal Tax 0.80\nTOTAL 10.80"
	tax := Tax(text, patterns.Default())
	require.NotNil(t, tax)
	assert.Equal(t, 0, tax.Cmp(money.MustParse("0.80")))

	assert.Nil(t, Tax("Item 10.00\nTOTAL 10.00", patterns.Default()))
}

func TestTax_ProductNamesAreNotTax(t *testing.T) {
	assert.Nil(t, Tax("Tax-free Water 1.00\nSyrup tax 2.00\nTOTAL 3.00", patterns.Default()))

	text := "Tax-free Water 1.00\nMilk 2.00\nTOTAL 3.00"
	assert.Nil(t, Tax(text, patterns.Default()))
	items, _ := LineItems(text, patterns.Default())
	require.Len(t, items, 2)
	assert.Equal(t, "Tax-free Water", items[0].RawName)
}


func TestExtractor(t *testing.T) {
	e := NewExtractor(nil, fuzzy.Default())
	f := e.Extract(wholeFoods)
	assert.Equal(t, "Whole Foods Market", f.Merchant.ValueOr(""))
	assert.True(t, f.Date.Present())
	assert.Len(t, f.Items, 5)
	assert.True(t, f.Total.Present())
	assert.Nil(t, f.Tax)

	// same text, same fields
	assert.Equal(t, f, e.Extract(wholeFoods))
}
