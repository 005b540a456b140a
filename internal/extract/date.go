package extract

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
)

const dateWindow = 15

// Date returns the first parseable purchase date in the top lines. Shapes are
// tried in table order; within a shape every match is tried line by line.
func Date(text string, table *patterns.Table) entity.Field[time.Time] {
	window := firstN(splitLines(text), dateWindow)

	for _, shape := range table.Dates {
		for _, l := range window {
			for _, raw := range shape.Re.FindAllString(l.Text, -1) {
				if t, ok := parseLayouts(raw, shape.Layouts); ok {
					return entity.Found(t, shape.Confidence)
				}
			}
		}
	}
	return entity.Missing[time.Time]()
}

func parseLayouts(raw string, layouts []string) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
