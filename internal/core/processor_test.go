package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/cache"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/extract"
	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/merchant"
	"github.com/joseph-ayodele/receipts-parser/internal/ocr"
)

const wholeFoodsReceipt = `WHOLE FOODS MARKET
123 Main St
Date: 01/15/2024
Product 1 4.99
Product 2 5.99
Product 3 6.99
Product 4 7.99
Product 5 3.99
SUBTOTAL 29.95
TOTAL $29.95
VISA 29.95`

func newTestProcessor(t *testing.T, opts ...Option) (*Processor, *merchant.MemoryRegistry) {
	t.Helper()
	reg := merchant.NewMemoryRegistry()
	text := ocr.NewExtractor(ocr.Config{}, ocr.Capabilities{}, nil, nil, nil)
	fields := extract.NewExtractor(nil, fuzzy.Default())
	return NewProcessor(nil, text, fields, merchant.NewResolver(reg, fuzzy.Default(), nil), opts...), reg
}

func TestParse_WholeFoods(t *testing.T) {
	p, reg := newTestProcessor(t)
	out := p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))

	assert.Equal(t, constants.ParseStatusSuccess, out.Status)
	assert.GreaterOrEqual(t, out.OverallConfidence, 0.75)
	assert.Equal(t, 1.0, out.OverallConfidence)
	assert.Empty(t, out.Issues)
	assert.Empty(t, out.Message)

	require.NotNil(t, out.Merchant)
	assert.Equal(t, "Whole Foods Market", out.Merchant.DisplayName)
	assert.Equal(t, "whole foods market", out.Merchant.NormalizedName)
	assert.Equal(t, 1, reg.Len())

	require.NotNil(t, out.PurchaseDate)
	assert.Equal(t, "2024-01-15", out.PurchaseDate.Format(entity.DateLayout))

	require.Len(t, out.LineItems, 5)
	want := []string{"4.99", "5.99", "6.99", "7.99", "3.99"}
	for i, item := range out.LineItems {
		assert.Equal(t, want[i], item.Price.Text('f'))
	}
	require.NotNil(t, out.Total)
	assert.Equal(t, "29.95", out.Total.Text('f'))
	assert.Nil(t, out.Tax)

	assert.Equal(t, constants.TXT, out.Source.Format)
	assert.Equal(t, ocr.MethodPlainText, out.Source.Method)
}

func TestParse_NoLineItems(t *testing.T) {
	p, _ := newTestProcessor(t)
	out := p.Parse(context.Background(), entity.NewDocument("x.txt", []byte("WHOLE FOODS MARKET\n01/15/2024\nThank you for shopping")))

	assert.Equal(t, constants.ParseStatusFailed, out.Status)
	assert.Equal(t, []string{"No line items extracted."}, out.Issues)
	assert.Zero(t, out.OverallConfidence)
}

func TestParse_Unsupported(t *testing.T) {
	p, _ := newTestProcessor(t)
	out := p.Parse(context.Background(), entity.NewDocument("r.docx", []byte("x")))
	assert.Equal(t, constants.ParseStatusFailed, out.Status)
	assert.Equal(t, []string{`unsupported file type: ".docx"`}, out.Issues)
	assert.Equal(t, out.Issues[0], out.Message)
}

func TestParse_BackendUnavailable(t *testing.T) {
	p, _ := newTestProcessor(t)
	out := p.Parse(context.Background(), entity.NewDocument("r.png", []byte("x")))
	assert.Equal(t, constants.ParseStatusFailed, out.Status)
	assert.Equal(t, []string{"ocr backend is not available"}, out.Issues)
}

func TestParse_RoundTrip(t *testing.T) {
	p, _ := newTestProcessor(t)
	doc := entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt))
	first := p.Parse(context.Background(), doc)
	second := p.Parse(context.Background(), doc)
	assert.Equal(t, first, second)
}

func TestParse_Mismatch(t *testing.T) {
	p, _ := newTestProcessor(t)
	text := "TARGET\n2024-03-01\nSoap 5.00\nTowels 5.00\nTOTAL 12.00"
	out := p.Parse(context.Background(), entity.NewDocument("t.txt", []byte(text)))

	assert.Equal(t, constants.ParseStatusNeedsReview, out.Status)
	assert.InDelta(t, 0.69, out.OverallConfidence, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "does not match sum of items")
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (entity.Merchant, error) {
	return entity.Merchant{}, errors.New("registry down")
}

func TestParse_ResolverFailureIsSoft(t *testing.T) {
	text := ocr.NewExtractor(ocr.Config{}, ocr.Capabilities{}, nil, nil, nil)
	p := NewProcessor(nil, text, nil, failingResolver{})
	out := p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))

	// date, items and total alone reach the success threshold
	assert.Equal(t, constants.ParseStatusSuccess, out.Status)
	assert.InDelta(t, 0.75, out.OverallConfidence, 1e-9)
	assert.Nil(t, out.Merchant)
	assert.Equal(t, []string{"Merchant resolution failed: registry down"}, out.Issues)
	assert.Empty(t, out.Message)
	assert.Zero(t, out.Fields.Merchant)
}

func TestParse_ResolverFailureDropsMerchantWeight(t *testing.T) {
	text := ocr.NewExtractor(ocr.Config{}, ocr.Capabilities{}, nil, nil, nil)
	p := NewProcessor(nil, text, nil, failingResolver{})
	out := p.Parse(context.Background(), entity.NewDocument("t.txt", []byte(`TARGET
2024-03-01
Soap 5.00
Towels 5.00
TOTAL 10.00`)))

	// 0.20 date + 0.14 items + 0.20 total, nothing for the lost merchant
	assert.Equal(t, constants.ParseStatusNeedsReview, out.Status)
	assert.InDelta(t, 0.54, out.OverallConfidence, 1e-9)
	assert.Equal(t, "Merchant resolution failed: registry down", out.Message)
}

func TestParse_ShortHeaderNoiseCreatesNoMerchant(t *testing.T) {
	p, reg := newTestProcessor(t)
	for _, head := range []string{"e", "st", "mart", "food"} {
		text := head + `
Corner Deli
01/15/2024
Sandwich 5.99
TOTAL 5.99`
		out := p.Parse(context.Background(), entity.NewDocument("deli.txt", []byte(text)))
		assert.Nil(t, out.Merchant, head)
		assert.Zero(t, out.Fields.Merchant, head)
		assert.Contains(t, out.Issues, "Merchant name not found.", head)
	}
	assert.Zero(t, reg.Len())
}

func TestParse_TrailerAfterTotal(t *testing.T) {
	p, _ := newTestProcessor(t)
	text := `SAFEWAY
03/02/2024
Milk 4.99
Bread 3.50
Eggs 8.00
TOTAL 16.49
VISA 16.49
TOTAL SAVINGS 1.20`
	out := p.Parse(context.Background(), entity.NewDocument("sw.txt", []byte(text)))

	require.NotNil(t, out.Total)
	assert.Equal(t, "16.49", out.Total.Text('f'))
	for _, issue := range out.Issues {
		assert.NotContains(t, issue, "does not match")
	}
}

func TestParse_NoResolver(t *testing.T) {
	text := ocr.NewExtractor(ocr.Config{}, ocr.Capabilities{}, nil, nil, nil)
	p := NewProcessor(nil, text, nil, nil)
	out := p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))
	require.NotNil(t, out.Merchant)
	assert.Equal(t, "whole foods market", out.Merchant.NormalizedName)
}

type countingExtractor struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (c *countingExtractor) ExtractText(context.Context, entity.Document) (ocr.ExtractionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return ocr.ExtractionResult{Text: c.text, Pages: 1, SourceType: constants.IMAGE, Method: ocr.MethodImageOCR}, c.err
}

func TestParse_TextCache(t *testing.T) {
	tc, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer tc.Close()

	ext := &countingExtractor{text: wholeFoodsReceipt}
	p := NewProcessor(nil, ext, nil, nil, WithTextCache(tc))
	doc := entity.NewDocument("wf.png", []byte("png bytes"))

	first := p.Parse(context.Background(), doc)
	assert.False(t, first.Source.Cached)
	second := p.Parse(context.Background(), doc)
	assert.True(t, second.Source.Cached)
	assert.Equal(t, 1, ext.calls)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.LineItems, second.LineItems)

	// plain text is never cached
	p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))
	n, err := tc.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParse_ExtractionErrorNotCached(t *testing.T) {
	tc, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer tc.Close()

	ext := &countingExtractor{err: common.ExtractionIOError("ocr", errors.New("boom"))}
	p := NewProcessor(nil, ext, nil, nil, WithTextCache(tc))
	out := p.Parse(context.Background(), entity.NewDocument("r.png", []byte("x")))
	assert.Equal(t, constants.ParseStatusFailed, out.Status)
	assert.Equal(t, []string{"ocr failed: boom"}, out.Issues)

	n, err := tc.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

type recordingSink struct {
	mu   sync.Mutex
	outs []entity.ParseOutcome
	err  error
}

func (r *recordingSink) SaveOutcome(_ context.Context, _ entity.Document, out entity.ParseOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = append(r.outs, out)
	return r.err
}

func TestParse_SinkErrorDoesNotChangeOutcome(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	p, _ := newTestProcessor(t, WithOutcomeSink(sink))
	out := p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))

	assert.Equal(t, constants.ParseStatusSuccess, out.Status)
	require.Len(t, sink.outs, 1)
	assert.Equal(t, out, sink.outs[0])

	p.Parse(context.Background(), entity.NewDocument("bad.docx", nil))
	require.Len(t, sink.outs, 2)
	assert.Equal(t, constants.ParseStatusFailed, sink.outs[1].Status)
}

func TestParse_Concurrent(t *testing.T) {
	p, reg := newTestProcessor(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := p.Parse(context.Background(), entity.NewDocument("wf.txt", []byte(wholeFoodsReceipt)))
			assert.Equal(t, constants.ParseStatusSuccess, out.Status)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reg.Len())
}
