// Package ingest discovers receipt files on disk and loads them as Documents.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// FileResult is the per-file ingest outcome. Err is set when the file could
// not be read; Doc is zero in that case.
type FileResult struct {
	Path    string
	Doc     entity.Document
	HashHex string
	Err     string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch command depends on.
type Ingestor interface {
	// ReadPath loads a single file.
	ReadPath(ctx context.Context, path string) (entity.Document, error)
	// Walk calls fn for every matching file under root, in lexical order.
	Walk(ctx context.Context, root string, fn func(FileResult) error) (DirStats, error)
}
