package entity

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/constants"
)

// DateLayout is the wire format for purchase dates.
const DateLayout = "2006-01-02"

// FieldConfidences are the per-field confidences that fed the classifier.
type FieldConfidences struct {
	Merchant float64 `json:"merchant"`
	Date     float64 `json:"date"`
	Total    float64 `json:"total"`
}

// TextSource describes how the text blob was obtained.
type TextSource struct {
	Format   string   `json:"format"`
	Method   string   `json:"method"`
	Pages    int      `json:"pages"`
	Cached   bool     `json:"cached"`
	Warnings []string `json:"warnings,omitempty"`
}

// ParseOutcome is the only value returned by a parse. It is not modified after it is built.
type ParseOutcome struct {
	Status            constants.ParseStatus `json:"status"`
	OverallConfidence float64               `json:"overall_confidence"`
	Issues            []string              `json:"issues"`
	Message           string                `json:"message,omitempty"`

	Merchant     *Merchant    `json:"merchant,omitempty"`
	PurchaseDate *time.Time   `json:"-"`
	LineItems    []LineItem   `json:"line_items"`
	Total        *apd.Decimal `json:"total,omitempty"`
	Tax          *apd.Decimal `json:"tax,omitempty"`

	Fields FieldConfidences `json:"fields"`
	Stats  ExtractionStats  `json:"stats"`
	Source TextSource       `json:"source"`
}

// FailedOutcome is the outcome of a parse aborted by a hard fault.
func FailedOutcome(issue string) ParseOutcome {
	return ParseOutcome{
		Status:    constants.ParseStatusFailed,
		Issues:    []string{issue},
		Message:   issue,
		LineItems: []LineItem{},
	}
}

func (o ParseOutcome) MarshalJSON() ([]byte, error) {
	type alias ParseOutcome
	var date string
	if o.PurchaseDate != nil {
		date = o.PurchaseDate.Format(DateLayout)
	}
	return json.Marshal(struct {
		alias
		PurchaseDate string `json:"purchase_date,omitempty"`
	}{alias(o), date})
}
