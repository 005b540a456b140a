package entity

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a deduplicated registry record. NormalizedName is the dedup key.
type Merchant struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"display_name"`
	NormalizedName string    `json:"normalized_name"`
	CreatedAt      time.Time `json:"created_at"`
}
