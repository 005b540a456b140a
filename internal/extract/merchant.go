package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
)

const (
	merchantAliasWindow = 10
	merchantFuzzyWindow = 5

	// fuzzyMinRunes is the shortest header line that is fuzzy matched. A line
	// under two thirds of a canonical name's length is not scored against it.
	fuzzyMinRunes = 4

	// MerchantFuzzyThreshold must be strictly exceeded.
	MerchantFuzzyThreshold = 0.80
)

// Merchant finds the store name near the top of the receipt. An alias hit
// returns the canonical name with confidence 1. Otherwise, when scorer is not
// nil, the best partial-ratio candidate above the threshold is returned with
// its ratio as confidence. Short OCR fragments never reach the scorer.
func Merchant(text string, table *patterns.Table, scorer fuzzy.Scorer) entity.Field[string] {
	ls := splitLines(text)

	for _, l := range firstN(ls, merchantAliasWindow) {
		for _, m := range table.Merchants {
			for _, re := range m.Aliases {
				if re.MatchString(l.Text) {
					return entity.Found(m.Name, 1.0)
				}
			}
		}
	}

	if scorer == nil {
		return entity.Missing[string]()
	}

	var (
		best     float64
		bestName string
	)
	for _, l := range firstN(ls, merchantFuzzyWindow) {
		lower := strings.ToLower(l.Text)
		n := utf8.RuneCountInString(lower)
		if n < fuzzyMinRunes {
			continue
		}
		for _, m := range table.Merchants {
			name := strings.ToLower(m.Name)
			if 3*n < 2*utf8.RuneCountInString(name) {
				continue
			}
			r := scorer.PartialRatio(lower, name)
			if r > best {
				best, bestName = r, m.Name
			}
		}
	}
	if best > MerchantFuzzyThreshold {
		return entity.Found(bestName, best)
	}
	return entity.Missing[string]()
}
