package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/ingest"
)

func newOCRCmd(opts *rootOptions) *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "ocr <file>",
		Short: "Print the text extracted from a receipt without parsing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				doc, err := ingest.NewFSIngestor(a.logger).ReadPath(ctx, args[0])
				if err != nil {
					return err
				}
				res, cached, err := a.processor.ExtractText(ctx, doc)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if textOnly {
					_, err := fmt.Fprintln(w, res.Text)
					return err
				}
				fmt.Fprintf(w, "source:     %s\n", doc.Name)
				fmt.Fprintf(w, "method:     %s\n", res.Method)
				fmt.Fprintf(w, "pages:      %d\n", res.Pages)
				fmt.Fprintf(w, "confidence: %.2f\n", res.Confidence)
				fmt.Fprintf(w, "cached:     %t\n", cached)
				if len(res.Warnings) > 0 {
					fmt.Fprintf(w, "warnings:   %s\n", strings.Join(res.Warnings, "; "))
				}
				fmt.Fprintf(w, "--- text (%d chars) ---\n%s\n", len(res.Text), res.Text)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the extracted text")
	return cmd
}
