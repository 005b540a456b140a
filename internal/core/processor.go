package core

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/apd/v3"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/cache"
	"github.com/joseph-ayodele/receipts-parser/internal/classify"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/extract"
	"github.com/joseph-ayodele/receipts-parser/internal/ocr"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

// TextExtractor is the text extraction stage.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc entity.Document) (ocr.ExtractionResult, error)
}

// MerchantResolver maps an extracted merchant name onto a registry record.
type MerchantResolver interface {
	Resolve(ctx context.Context, name string) (entity.Merchant, error)
}

// TextCache remembers extracted text by content hash.
type TextCache interface {
	Get(hash string) (cache.Entry, bool, error)
	Put(hash string, entry cache.Entry) error
}

// OutcomeSink receives every finished outcome.
type OutcomeSink interface {
	SaveOutcome(ctx context.Context, doc entity.Document, out entity.ParseOutcome) error
}

// Processor sequences text extraction, field extraction, merchant resolution
// and classification. It is safe for concurrent use; the resolver's registry
// is its only shared mutable collaborator.
type Processor struct {
	logger   *slog.Logger
	text     TextExtractor
	fields   *extract.Extractor
	resolver MerchantResolver
	cache    TextCache
	sinks    []OutcomeSink
}

type Option func(*Processor)

func WithTextCache(c TextCache) Option {
	return func(p *Processor) {
		if c != nil {
			p.cache = c
		}
	}
}

func WithOutcomeSink(s OutcomeSink) Option {
	return func(p *Processor) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

// NewProcessor builds a Processor. A nil resolver keeps the extracted merchant
// name without registry identity; a nil fields extractor uses the default
// pattern table without fuzzy matching.
func NewProcessor(logger *slog.Logger, text TextExtractor, fields *extract.Extractor, resolver MerchantResolver, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if fields == nil {
		fields = extract.NewExtractor(nil, nil)
	}
	p := &Processor{
		logger:   logger,
		text:     text,
		fields:   fields,
		resolver: resolver,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse runs the whole pipeline for one document. It never returns an error:
// hard faults become a FAILED outcome carrying the failure message.
func (p *Processor) Parse(ctx context.Context, doc entity.Document) entity.ParseOutcome {
	hash := doc.HashHex()
	ctx = common.WithContentHash(ctx, hash)
	log := p.logger.With("name", doc.Name, "content_hash", hash)
	if id := common.RequestIDFromContext(ctx); id != "" {
		log = log.With("request_id", id)
	}

	res, cached, err := p.ExtractText(ctx, doc)
	src := entity.TextSource{
		Format:   res.SourceType,
		Method:   res.Method,
		Pages:    res.Pages,
		Cached:   cached,
		Warnings: res.Warnings,
	}
	if err != nil {
		log.Error("processor.extract.failed", "err", err)
		out := entity.FailedOutcome(common.Message(err))
		out.Source = src
		p.emit(ctx, log, doc, out)
		return out
	}

	out := p.ParseText(ctx, res.Text, src)
	log.Info("processor.parse.ok",
		"status", out.Status,
		"confidence", out.OverallConfidence,
		"items", len(out.LineItems),
		"issues", len(out.Issues),
		"cached", cached,
	)
	p.emit(ctx, log, doc, out)
	return out
}

// ExtractText returns the document text, consulting the cache first for
// image and PDF input. cached reports a cache hit.
func (p *Processor) ExtractText(ctx context.Context, doc entity.Document) (ocr.ExtractionResult, bool, error) {
	useCache := p.cache != nil && (doc.Format() == constants.IMAGE || doc.Format() == constants.PDF)
	hash := ""
	if useCache {
		hash = doc.HashHex()
		entry, ok, err := p.cache.Get(hash)
		switch {
		case err != nil:
			p.logger.Warn("processor.cache.get_failed", "content_hash", hash, "err", err)
		case ok:
			p.logger.Debug("processor.cache.hit", "content_hash", hash)
			return ocr.ExtractionResult{
				Text:       entry.Text,
				Pages:      entry.Pages,
				SourceType: entry.SourceType,
				Method:     entry.Method,
				Language:   entry.Language,
				Confidence: entry.Confidence,
			}, true, nil
		}
	}

	res, err := p.text.ExtractText(ctx, doc)
	if err != nil {
		return res, false, err
	}
	if useCache {
		entry := cache.Entry{
			Text:       res.Text,
			Pages:      res.Pages,
			SourceType: res.SourceType,
			Method:     res.Method,
			Language:   res.Language,
			Confidence: res.Confidence,
		}
		if err := p.cache.Put(hash, entry); err != nil {
			p.logger.Warn("processor.cache.put_failed", "content_hash", hash, "err", err)
		}
	}
	return res, false, nil
}

// ParseText runs field extraction, merchant resolution and classification
// over already extracted text.
func (p *Processor) ParseText(ctx context.Context, text string, src entity.TextSource) entity.ParseOutcome {
	f := p.fields.Extract(text)

	var (
		merchant     *entity.Merchant
		resolveIssue string
	)
	if f.Merchant.Present() {
		name := *f.Merchant.Value
		if p.resolver == nil {
			merchant = &entity.Merchant{DisplayName: name, NormalizedName: utils.NormalizeName(name)}
		} else if m, err := p.resolver.Resolve(ctx, name); err != nil {
			p.logger.Warn("processor.merchant.resolve_failed", "merchant", name, "err", err)
			resolveIssue = "Merchant resolution failed: " + common.Message(err)
		} else {
			merchant = &m
		}
	}

	// a merchant that did not survive resolution earns no weight
	merchantConf := f.Merchant.Confidence
	if merchant == nil {
		merchantConf = 0
	}

	prices := make([]apd.Decimal, len(f.Items))
	for i := range f.Items {
		prices[i] = f.Items[i].Price
	}
	result := classify.Classify(classify.Signals{
		MerchantConfidence: merchantConf,
		DateConfidence:     f.Date.Confidence,
		TotalConfidence:    f.Total.Confidence,
		ItemCount:          len(f.Items),
		ItemPrices:         prices,
		Total:              f.Total.Value,
		Tax:                f.Tax,
		MerchantIssue:      resolveIssue,
	})

	return entity.ParseOutcome{
		Status:            result.Status,
		OverallConfidence: result.OverallConfidence,
		Issues:            result.Issues,
		Message:           result.Message,
		Merchant:          merchant,
		PurchaseDate:      f.Date.Value,
		LineItems:         f.Items,
		Total:             f.Total.Value,
		Tax:               f.Tax,
		Fields: entity.FieldConfidences{
			Merchant: merchantConf,
			Date:     f.Date.Confidence,
			Total:    f.Total.Confidence,
		},
		Stats:  f.Stats,
		Source: src,
	}
}

func (p *Processor) emit(ctx context.Context, log *slog.Logger, doc entity.Document, out entity.ParseOutcome) {
	for _, s := range p.sinks {
		if err := s.SaveOutcome(ctx, doc, out); err != nil {
			log.Error("processor.sink.failed", "err", err)
		}
	}
}
