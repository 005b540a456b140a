package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-parser/constants"
)

func TestField(t *testing.T) {
	f := Found("Target", 1.0)
	assert.True(t, f.Present())
	assert.Equal(t, "Target", f.ValueOr(""))

	m := Missing[string]()
	assert.False(t, m.Present())
	assert.Equal(t, "none", m.ValueOr("none"))
	assert.Zero(t, m.Confidence)
}

func TestDocument(t *testing.T) {
	d := NewDocument("scan.JPEG", []byte("abc"))
	assert.Equal(t, constants.IMAGE, d.Format())
	assert.Equal(t, "jpeg", d.NormalizedExt())
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d.HashHex())

	assert.Equal(t, "", Document{Ext: ".docx"}.Format())
}

func TestExtractionStats_MatchRate(t *testing.T) {
	assert.Zero(t, ExtractionStats{}.MatchRate())
	assert.InDelta(t, 0.5, ExtractionStats{LinesSeen: 4, LinesMatched: 2}.MatchRate(), 1e-9)
}

func TestParseOutcome_MarshalJSON(t *testing.T) {
	total, _, err := apd.NewFromString("29.95")
	require.NoError(t, err)
	price, _, err := apd.NewFromString("4.99")
	require.NoError(t, err)
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	out := ParseOutcome{
		Status:       constants.ParseStatusSuccess,
		Issues:       []string{},
		PurchaseDate: &day,
		Total:        total,
		LineItems:    []LineItem{{RawName: "Product 1", NormalizedName: "product 1", Price: *price, LineNumber: 3}},
	}
	b, err := json.Marshal(out)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "2024-01-15", got["purchase_date"])
	assert.Equal(t, "29.95", got["total"])
	assert.Equal(t, "SUCCESS", got["status"])
	items := got["line_items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "4.99", items[0].(map[string]any)["price"])
}

func TestFailedOutcome(t *testing.T) {
	out := FailedOutcome("No line items extracted.")
	assert.Equal(t, constants.ParseStatusFailed, out.Status)
	assert.Equal(t, []string{"No line items extracted."}, out.Issues)
	assert.Zero(t, out.OverallConfidence)
	assert.Empty(t, out.LineItems)
}
