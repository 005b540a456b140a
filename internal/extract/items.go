package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/money"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

const minItemLineLen = 3

// LineItems scans every line for purchasable items, in source order.
func LineItems(text string, table *patterns.Table) ([]entity.LineItem, entity.ExtractionStats) {
	var (
		items = []entity.LineItem{}
		stats entity.ExtractionStats
	)
	for _, l := range splitLines(text) {
		if len(l.Text) < minItemLineLen {
			continue
		}
		stats.LinesSeen++
		if table.SkipKeyword.MatchString(l.Text) {
			stats.LinesSkippedKeyword++
			continue
		}
		for _, shape := range table.LineShapes {
			item, ok := matchLine(shape.Re, l)
			if !ok {
				continue
			}
			items = append(items, item)
			stats.LinesMatched++
			break
		}
	}
	return items, stats
}

func matchLine(re *regexp.Regexp, l line) (entity.LineItem, bool) {
	m := re.FindStringSubmatch(l.Text)
	if m == nil {
		return entity.LineItem{}, false
	}
	group := func(name string) string {
		if i := re.SubexpIndex(name); i >= 0 {
			return m[i]
		}
		return ""
	}

	name := strings.Trim(group("name"), " \t.:-*")
	if !validItemName(name) {
		return entity.LineItem{}, false
	}
	price, err := money.Parse(group("price"))
	if err != nil || price.Sign() < 0 {
		return entity.LineItem{}, false
	}

	item := entity.LineItem{
		RawName:        name,
		NormalizedName: utils.NormalizeProductName(name),
		Price:          *price,
		LineNumber:     l.Num,
	}
	if q := group("qty"); q != "" {
		d, _, err := apd.NewFromString(q)
		if err != nil {
			return entity.LineItem{}, false
		}
		item.Quantity = d
	}
	if u := group("unit"); u != "" {
		d, err := money.Parse(u)
		if err != nil {
			return entity.LineItem{}, false
		}
		item.UnitPrice = d
	}
	return item, true
}

func validItemName(name string) bool {
	if len([]rune(name)) <= 2 {
		return false
	}
	for _, r := range name {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && r != '.' && r != ',' {
			return true
		}
	}
	return false
}
