package ocr

import (
	"fmt"
	"log/slog"
)

// Capabilities says which optional backends exist. It is resolved once at
// startup and injected; nothing probes per call.
type Capabilities struct {
	OCR   bool
	PDF   bool
	Fuzzy bool
}

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// DetectCapabilities checks the configured engines. fuzzy is passed through
// from the parse settings since similarity scoring needs no external tool.
func DetectCapabilities(cfg Config, fuzzy bool, lookPath LookPathFunc) Capabilities {
	cfg = cfg.withDefaults()
	caps := Capabilities{Fuzzy: fuzzy}

	switch cfg.Engine {
	case EngineGosseract:
		caps.OCR = gosseractAvailable
	default:
		_, err := lookPath(cfg.Tesseract)
		caps.OCR = err == nil
	}

	switch cfg.PDFEngine {
	case PDFEnginePdftotext:
		_, err := lookPath(cfg.Pdftotext)
		caps.PDF = err == nil
	default:
		caps.PDF = true
	}
	return caps
}

// NewEngines builds the OCR and PDF backends named in cfg. A backend that is
// not available per caps comes back nil.
func NewEngines(cfg Config, caps Capabilities, runner Runner, logger *slog.Logger) (Engine, PDFEngine, error) {
	cfg = cfg.withDefaults()
	var (
		engine Engine
		pdf    PDFEngine
	)
	if caps.OCR {
		switch cfg.Engine {
		case EngineTesseract:
			engine = NewTesseractEngine(cfg, runner, logger)
		case EngineGosseract:
			g, err := NewGosseractEngine(cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			engine = g
		default:
			return nil, nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
		}
	}
	if caps.PDF {
		switch cfg.PDFEngine {
		case PDFEngineFitz:
			pdf = FitzEngine{}
		case PDFEnginePdftotext:
			pdf = NewPdftotextEngine(cfg, runner, logger)
		default:
			return nil, nil, fmt.Errorf("unknown pdf engine %q", cfg.PDFEngine)
		}
	}
	return engine, pdf, nil
}
