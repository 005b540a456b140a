package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PdftotextEngine shells out to poppler's pdftotext.
type PdftotextEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewPdftotextEngine(cfg Config, runner Runner, logger *slog.Logger) *PdftotextEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PdftotextEngine{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (p *PdftotextEngine) PagesOf(ctx context.Context, pdf []byte) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "rp-pdf-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()
	in := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, p.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", in, "-")
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return nil, fmt.Errorf("pdftotext: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits on the form feed pdftotext emits after every page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
