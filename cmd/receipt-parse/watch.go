package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/ingest"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		initial  bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Parse receipts as they appear under the given directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
					Roots:       args,
					InitialScan: initial,
					Debounce:    debounce,
				}, a.logger)
				if err != nil {
					return err
				}

				ing := ingest.NewFSIngestor(a.logger)
				enc := json.NewEncoder(cmd.OutOrStdout())
				for {
					select {
					case p, ok := <-paths:
						if !ok {
							return nil
						}
						doc, err := ing.ReadPath(ctx, p)
						if err != nil {
							if ctx.Err() != nil {
								return nil
							}
							a.logger.Warn("watch.read_failed", "path", p, "error", err)
							continue
						}
						if err := enc.Encode(a.processor.Parse(ctx, doc)); err != nil {
							return err
						}
					case err, ok := <-errs:
						if !ok {
							errs = nil
							continue
						}
						a.logger.Warn("watch.error", "error", err)
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&initial, "initial", true, "parse files already present before watching")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "coalesce bursts of file events")
	return cmd
}
