//go:build !gosseract

package ocr

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

const gosseractAvailable = false

// GosseractEngine is unavailable in builds without the gosseract tag.
type GosseractEngine struct{}

func NewGosseractEngine(Config, *slog.Logger) (*GosseractEngine, error) {
	return nil, common.BackendUnavailableError(EngineGosseract)
}

func (*GosseractEngine) ImageToText(context.Context, []byte) (string, error) {
	return "", common.BackendUnavailableError(EngineGosseract)
}

func (*GosseractEngine) Close() error { return nil }
