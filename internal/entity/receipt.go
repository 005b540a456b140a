package entity

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-parser/constants"
)

// Receipt represents a persisted parse outcome for data transfer between layers.
type Receipt struct {
	ID           uuid.UUID             `json:"id"`
	SourceName   string                `json:"source_name"`
	ContentHash  string                `json:"content_hash"`
	Status       constants.ParseStatus `json:"status"`
	Message      string                `json:"message"`
	Confidence   float64               `json:"confidence"`
	MerchantID   *uuid.UUID            `json:"merchant_id,omitempty"`
	PurchaseDate *time.Time            `json:"purchase_date,omitempty"`
	Total        *apd.Decimal          `json:"total,omitempty"`
	Tax          *apd.Decimal          `json:"tax,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// PriceObservation is one price seen for a product at a merchant on a date.
type PriceObservation struct {
	ID           uuid.UUID   `json:"id"`
	ProductName  string      `json:"product_name"` // normalized
	MerchantID   uuid.UUID   `json:"merchant_id"`
	Price        apd.Decimal `json:"price"`
	ObservedDate time.Time   `json:"observed_date"`
	LineItemID   uuid.UUID   `json:"line_item_id"`
}
