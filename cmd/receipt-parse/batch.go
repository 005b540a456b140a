package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/async"
	"github.com/joseph-ayodele/receipts-parser/internal/export"
	"github.com/joseph-ayodele/receipts-parser/internal/ingest"
)

type batchSummary struct {
	Stats       ingest.DirStats
	Rows        []export.Row
	ReadErrors  int
	ByStatus    map[constants.ParseStatus]int
	Elapsed     time.Duration
	Interrupted bool
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		dir           string
		out           string
		includeHidden bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse every receipt under a directory and export an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = filepath.Join(filepath.Dir(filepath.Clean(dir)), "receipts.xlsx")
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				ing := ingest.NewFSIngestor(a.logger)
				ing.SkipHidden = !includeHidden
				sum, err := runBatch(cmd.Context(), a, ing, dir)
				if err != nil {
					return err
				}

				xlsx, err := export.NewService(nil, nil, a.logger).OutcomesXLSX(cmd.Context(), sum.Rows)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, xlsx, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Batch processing complete!\n")
				fmt.Fprintf(w, "- Files matched: %d\n", sum.Stats.Matched)
				fmt.Fprintf(w, "- Duplicates skipped: %d\n", sum.Stats.Deduplicated)
				fmt.Fprintf(w, "- Unreadable: %d\n", sum.ReadErrors)
				fmt.Fprintf(w, "- Parsed: %d (success %d, needs review %d, failed %d)\n", len(sum.Rows),
					sum.ByStatus[constants.ParseStatusSuccess],
					sum.ByStatus[constants.ParseStatusNeedsReview],
					sum.ByStatus[constants.ParseStatusFailed])
				fmt.Fprintf(w, "- Output: %s\n", out)
				if sum.Interrupted {
					return cmd.Context().Err()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to process receipts from (required)")
	cmd.Flags().StringVar(&out, "out", "", "output XLSX path (defaults to receipts.xlsx next to --dir)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "also parse hidden files and directories")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// runBatch walks dir into the worker queue and collects every outcome,
// sorted by source path.
func runBatch(ctx context.Context, a *app, ing ingest.Ingestor, dir string) (batchSummary, error) {
	start := time.Now()
	sum := batchSummary{ByStatus: map[constants.ParseStatus]int{}}

	q := async.NewProcessorQueue(a.processor, a.logger,
		async.WithWorkers(a.cfg.Queue.Workers),
		async.WithQueueSize(a.cfg.Queue.Size),
		async.WithProcessTimeout(a.cfg.Queue.Timeout),
	)
	collected := make(chan []export.Row, 1)
	go func() {
		var rows []export.Row
		for r := range q.Results() {
			rows = append(rows, export.Row{Source: r.Job.Doc.Name, Outcome: r.Outcome})
		}
		collected <- rows
	}()

	stats, walkErr := ing.Walk(ctx, dir, func(fr ingest.FileResult) error {
		if fr.Err != "" {
			sum.ReadErrors++
			a.logger.Warn("skipping unreadable file", "path", fr.Path, "error", fr.Err)
			return nil
		}
		return q.Enqueue(ctx, async.Job{Doc: fr.Doc})
	})
	// queued jobs still finish after an interrupt
	q.Shutdown(context.Background())
	sum.Rows = <-collected
	sum.Stats = stats

	if walkErr != nil {
		if ctx.Err() == nil {
			return sum, walkErr
		}
		sum.Interrupted = true
	}

	sort.Slice(sum.Rows, func(i, j int) bool { return sum.Rows[i].Source < sum.Rows[j].Source })
	for _, r := range sum.Rows {
		sum.ByStatus[r.Outcome.Status]++
	}
	sum.Elapsed = time.Since(start)
	a.logger.Info("batch.complete",
		"dir", dir,
		"parsed", len(sum.Rows),
		"read_errors", sum.ReadErrors,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}
