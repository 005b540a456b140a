package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/ingest"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var (
		pretty bool
		ext    string
	)
	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse receipts and print one JSON outcome per file",
		Long: "Parse receipts and print one JSON outcome per line (or indented with --pretty).\n" +
			"Use - to read plain text from stdin. A FAILED outcome is still printed and does not fail the command.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				ing := ingest.NewFSIngestor(a.logger)
				enc := json.NewEncoder(cmd.OutOrStdout())
				if pretty {
					enc.SetIndent("", "  ")
				}
				for _, path := range args {
					var doc entity.Document
					if path == "-" {
						b, err := io.ReadAll(cmd.InOrStdin())
						if err != nil {
							return fmt.Errorf("read stdin: %w", err)
						}
						doc = entity.Document{Name: "stdin", Ext: ext, Content: b}
					} else if ingest.AllowedExt(filepath.Ext(path)) {
						d, err := ing.ReadPath(ctx, path)
						if err != nil {
							return err
						}
						doc = d
					} else {
						// the processor reports the unsupported format as a FAILED outcome
						b, err := os.ReadFile(path)
						if err != nil {
							return fmt.Errorf("read %s: %w", path, err)
						}
						doc = entity.NewDocument(path, b)
					}
					out := a.processor.Parse(ctx, doc)
					if err := enc.Encode(out); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().StringVar(&ext, "stdin-ext", "txt", "extension assumed for stdin content")
	return cmd
}
