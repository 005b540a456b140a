//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

const gosseractAvailable = true

// GosseractEngine runs tesseract in-process through libtesseract. A
// gosseract client is not safe for concurrent use, so calls are serialized.
type GosseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *slog.Logger
}

func NewGosseractEngine(cfg Config, logger *slog.Logger) (*GosseractEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Lang); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gosseract language: %w", err)
	}
	if cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("gosseract psm: %w", err)
		}
	}
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("gosseract tessdata: %w", err)
		}
	}
	return &GosseractEngine{client: client, logger: logger}, nil
}

func (g *GosseractEngine) ImageToText(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("gosseract set image: %w", err)
	}
	txt, err := g.client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return txt, nil
}

func (g *GosseractEngine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client.Close()
}
