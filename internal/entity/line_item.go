package entity

import "github.com/cockroachdb/apd/v3"

// LineItem is one purchasable line recognized in the receipt text, kept in source order.
type LineItem struct {
	RawName        string       `json:"raw_name"`
	NormalizedName string       `json:"normalized_name"`
	Quantity       *apd.Decimal `json:"quantity,omitempty"`
	UnitPrice      *apd.Decimal `json:"unit_price,omitempty"`
	Price          apd.Decimal  `json:"price"` // line total
	LineNumber     int          `json:"line_number"`
}

// ExtractionStats describes how the line item scan went.
type ExtractionStats struct {
	LinesSeen           int `json:"lines_seen"`
	LinesMatched        int `json:"lines_matched"`
	LinesSkippedKeyword int `json:"lines_skipped_keyword"`
}

// MatchRate is LinesMatched / LinesSeen, 0 when nothing was seen.
func (s ExtractionStats) MatchRate() float64 {
	if s.LinesSeen == 0 {
		return 0
	}
	return float64(s.LinesMatched) / float64(s.LinesSeen)
}
