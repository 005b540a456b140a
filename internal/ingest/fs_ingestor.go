package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// DefaultMaxBytes caps the size of a single document read into memory.
const DefaultMaxBytes = 32 << 20

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	SkipHidden bool
	MaxBytes   int64
	logger     *slog.Logger
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{SkipHidden: true, MaxBytes: DefaultMaxBytes, logger: logger}
}

func (i *FSIngestor) ReadPath(_ context.Context, path string) (entity.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Debug("unsupported or missing extension", "path", abs, "ext", ext)
		return entity.Document{}, common.UnsupportedFormatError(ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return entity.Document{}, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	limit := i.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return entity.Document{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(content)) > limit {
		return entity.Document{}, fmt.Errorf("%w: %s is larger than %d bytes", common.ErrInvalidInput, abs, limit)
	}
	return entity.NewDocument(abs, content), nil
}

// Walk visits root in lexical order, skipping hidden entries when SkipHidden
// is set. Files whose content was already seen during this walk are reported
// as deduplicated and not handed to fn. Per-file read errors are reported
// through fn and counted, they do not stop the walk. An error returned by fn
// does.
func (i *FSIngestor) Walk(ctx context.Context, root string, fn func(FileResult) error) (DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return stats, fmt.Errorf("%w: root path is required", common.ErrInvalidInput)
	}
	seen := make(map[string]struct{})

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return fn(FileResult{Path: path, Err: walkErr.Error()})
		}
		if i.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := i.ReadPath(ctx, path)
		if err != nil {
			stats.Failed++
			return fn(FileResult{Path: path, Err: err.Error()})
		}
		hash := doc.HashHex()
		if _, dup := seen[hash]; dup {
			stats.Deduplicated++
			i.logger.Debug("skipping duplicate document", "path", path, "hash", hash)
			return nil
		}
		seen[hash] = struct{}{}
		stats.Succeeded++
		return fn(FileResult{Path: path, Doc: doc, HashHex: hash})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stats, err
		}
		return stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("directory walked", "root", root, "scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return stats, nil
}
