package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TesseractEngine shells out to the tesseract CLI.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, runner Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractEngine{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (t *TesseractEngine) ImageToText(ctx context.Context, png []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "rp-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()
	in := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, png, 0o600); err != nil {
		return "", err
	}

	// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir d]
	args := []string{in, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
