// Package extract turns receipt text into candidate fields. Extractors are
// pure: they never fail, and a missing value has confidence 0.
package extract

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
)

// Fields is everything the extractors found in one text blob.
type Fields struct {
	Merchant entity.Field[string]
	Date     entity.Field[time.Time]
	Items    []entity.LineItem
	Stats    entity.ExtractionStats
	Total    entity.Field[apd.Decimal]
	Tax      *apd.Decimal
}

// Extractor runs the four field extractors over one table.
type Extractor struct {
	table  *patterns.Table
	scorer fuzzy.Scorer
}

// NewExtractor uses patterns.Default() when table is nil. A nil scorer turns
// fuzzy merchant matching off.
func NewExtractor(table *patterns.Table, scorer fuzzy.Scorer) *Extractor {
	if table == nil {
		table = patterns.Default()
	}
	return &Extractor{table: table, scorer: scorer}
}

func (e *Extractor) Extract(text string) Fields {
	items, stats := LineItems(text, e.table)
	return Fields{
		Merchant: Merchant(text, e.table, e.scorer),
		Date:     Date(text, e.table),
		Items:    items,
		Stats:    stats,
		Total:    Total(text, e.table),
		Tax:      Tax(text, e.table),
	}
}
