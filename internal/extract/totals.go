package extract

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/money"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
)

const totalsWindow = 15

// Total searches the bottom of the receipt. Each pattern is tried over the
// whole window before the next, and the first matching line from the top wins
// so trailer lines printed after the total cannot replace it. Subtotal lines
// and lines such as "TOTAL SAVINGS" never count.
func Total(text string, table *patterns.Table) entity.Field[apd.Decimal] {
	window := lastN(splitLines(text), totalsWindow)

	for _, p := range table.Totals {
		for _, l := range window {
			if table.Subtotal.MatchString(l.Text) || table.TotalExclude.MatchString(l.Text) {
				continue
			}
			m := p.Re.FindStringSubmatch(l.Text)
			if m == nil {
				continue
			}
			d, err := money.Parse(m[1])
			if err != nil {
				continue
			}
			conf := 0.8
			if strings.Contains(strings.ToLower(m[0]), "total") {
				conf = 1.0
			}
			return entity.Found(*d, conf)
		}
	}
	return entity.Missing[apd.Decimal]()
}

// Tax returns the last tax amount in the bottom lines, ignoring any line that
// mentions a total.
func Tax(text string, table *patterns.Table) *apd.Decimal {
	var found *apd.Decimal
	for _, l := range lastN(splitLines(text), totalsWindow) {
		if strings.Contains(strings.ToLower(l.Text), "total") {
			continue
		}
		m := table.Tax.FindStringSubmatch(l.Text)
		if m == nil {
			continue
		}
		if d, err := money.Parse(m[1]); err == nil {
			found = d
		}
	}
	return found
}
