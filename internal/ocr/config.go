package ocr

import (
	"strconv"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

// Engine names accepted in Config.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"

	PDFEngineFitz      = "fitz"
	PDFEnginePdftotext = "pdftotext"
)

type Config struct {
	Engine    string // EngineTesseract | EngineGosseract
	PDFEngine string // PDFEngineFitz | PDFEnginePdftotext
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"

	Lang        string // default "eng"
	PSM         int    // e.g., 6 is good for uniform block of text
	TessdataDir string
	MaxPages    int // pages rasterized for scanned PDFs, 0 = no limit

	Preprocess Preprocess
}

// FromCommon maps the application config section.
func FromCommon(c common.OCRConfig) Config {
	return Config{
		Engine:      c.Engine,
		PDFEngine:   c.PDFEngine,
		Tesseract:   c.Tesseract,
		Pdftotext:   c.Pdftotext,
		Lang:        c.Lang,
		PSM:         c.PSM,
		TessdataDir: c.TessdataDir,
		Preprocess: Preprocess{
			Enabled:         c.Preprocess,
			ThresholdWindow: c.ThresholdWindow,
			ThresholdRatio:  c.ThresholdRatio,
			BlurSigma:       c.BlurSigma,
			Contrast:        c.Contrast,
		},
	}
}

func (c Config) withDefaults() Config {
	if c.Engine == "" {
		c.Engine = EngineTesseract
	}
	if c.PDFEngine == "" {
		c.PDFEngine = PDFEngineFitz
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	c.Preprocess = c.Preprocess.withDefaults()
	return c
}

func itoa(i int) string { return strconv.Itoa(i) }
