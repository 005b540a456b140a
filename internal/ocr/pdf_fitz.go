package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// FitzEngine reads PDFs in-process with MuPDF.
type FitzEngine struct{}

var (
	_ PDFEngine    = FitzEngine{}
	_ PageRenderer = FitzEngine{}
)

func (FitzEngine) PagesOf(ctx context.Context, pdf []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txt, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading PDF page %d: %w", i+1, err)
		}
		pages = append(pages, txt)
	}
	return pages, nil
}

// RenderPages rasterizes up to maxPages pages (0 = all) to PNG.
func (FitzEngine) RenderPages(ctx context.Context, pdf []byte, maxPages int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding PNG: %w", err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}
