// Package ocr turns an uploaded document into one UTF-8 text blob. It owns
// format dispatch and image pre-processing; pixel and PDF text work is
// delegated to an Engine and a PDFEngine.
package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// Methods reported in ExtractionResult.Method.
const (
	MethodPlainText = "plain-text"
	MethodPDFText   = "pdf-text"
	MethodPDFOCR    = "pdf-ocr"
	MethodImageOCR  = "image-ocr"
)

// Engine turns a PNG into text.
type Engine interface {
	ImageToText(ctx context.Context, png []byte) (string, error)
}

// PDFEngine returns the text of every page, in page order.
type PDFEngine interface {
	PagesOf(ctx context.Context, pdf []byte) ([]string, error)
}

// PageRenderer is implemented by PDF engines that can rasterize pages, used
// to OCR scanned PDFs that carry no text layer.
type PageRenderer interface {
	RenderPages(ctx context.Context, pdf []byte, maxPages int) ([][]byte, error)
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TXT
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	caps   Capabilities
	engine Engine
	pdf    PDFEngine
	logger *slog.Logger
}

// NewExtractor wires the backends. caps is resolved once at startup; a nil
// engine or pdf marks that capability off regardless of caps.
func NewExtractor(cfg Config, caps Capabilities, engine Engine, pdf PDFEngine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if engine == nil {
		caps.OCR = false
	}
	if pdf == nil {
		caps.PDF = false
	}
	return &Extractor{cfg: cfg, caps: caps, engine: engine, pdf: pdf, logger: logger}
}

// Capabilities reports what this extractor can handle.
func (e *Extractor) Capabilities() Capabilities { return e.caps }

// ExtractText dispatches on the document's declared extension.
func (e *Extractor) ExtractText(ctx context.Context, doc entity.Document) (ExtractionResult, error) {
	start := time.Now()
	format := doc.Format()
	e.logger.Debug("ocr.extract.start", "name", doc.Name, "ext", doc.NormalizedExt(), "format", format, "bytes", len(doc.Content))

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.TXT:
		res = ExtractionResult{
			Text:       string(doc.Content),
			Pages:      1,
			SourceType: constants.TXT,
			Method:     MethodPlainText,
			Confidence: 1,
		}
	case constants.PDF:
		res, err = e.extractPDF(ctx, doc)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, doc)
	default:
		e.logger.Warn("ocr.extract.unsupported", "name", doc.Name, "ext", doc.Ext)
		return ExtractionResult{}, common.UnsupportedFormatError(doc.Ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "name", doc.Name, "format", format, "err", err)
		return res, err
	}
	e.logger.Debug("ocr.extract.ok",
		"name", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, doc entity.Document) (ExtractionResult, error) {
	if !e.caps.PDF {
		return ExtractionResult{SourceType: constants.PDF}, common.BackendUnavailableError("pdf")
	}
	pages, err := e.pdf.PagesOf(ctx, doc.Content)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF}, common.ExtractionIOError("pdf text extraction", err)
	}
	text := Normalize(strings.Join(pages, "\n"))
	res := ExtractionResult{
		Text:       text,
		Pages:      len(pages),
		SourceType: constants.PDF,
		Method:     MethodPDFText,
		Confidence: heuristicConfidence(text),
	}
	if text != "" {
		return res, nil
	}

	// No text layer: rasterize and OCR when both backends allow it.
	renderer, ok := e.pdf.(PageRenderer)
	if !ok || !e.caps.OCR {
		res.Warnings = append(res.Warnings, "pdf has no text layer")
		return res, nil
	}
	images, err := renderer.RenderPages(ctx, doc.Content, e.cfg.MaxPages)
	if err != nil {
		res.Warnings = append(res.Warnings, "pdf render failed: "+err.Error())
		return res, nil
	}
	texts := make([]string, 0, len(images))
	for i, img := range images {
		png, warns := e.prepare(img, false)
		res.Warnings = append(res.Warnings, warns...)
		t, err := e.engine.ImageToText(ctx, png)
		if err != nil {
			return res, common.ExtractionIOError("ocr of pdf page "+itoa(i+1), err)
		}
		texts = append(texts, t)
	}
	res.Text = Normalize(strings.Join(texts, "\n"))
	res.Method = MethodPDFOCR
	res.Language = e.cfg.Lang
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

func (e *Extractor) extractImage(ctx context.Context, doc entity.Document) (ExtractionResult, error) {
	if !e.caps.OCR {
		return ExtractionResult{SourceType: constants.IMAGE}, common.BackendUnavailableError("ocr")
	}
	png, warns := e.prepare(doc.Content, constants.IsHEICExt(doc.Ext))
	txt, err := e.engine.ImageToText(ctx, png)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, common.ExtractionIOError("ocr", err)
	}
	txt = Normalize(txt)
	conf := heuristicConfidence(txt)
	if conf < ImageConfidenceThreshold {
		e.logger.Warn("ocr.image.low_confidence", "name", doc.Name, "confidence", conf)
	}
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     MethodImageOCR,
		Language:   e.cfg.Lang,
		Warnings:   warns,
		Confidence: conf,
	}, nil
}
