// Command receipt-parse turns receipt images, PDFs and text files into
// structured, classified parse outcomes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

// rootOptions are the persistent flags. A flag that is set overrides the
// matching RECEIPTS_* environment value.
type rootOptions struct {
	logLevel   string
	logFormat  string
	dbDriver   string
	dbDSN      string
	cachePath  string
	merchants  string
	ocrEngine  string
	pdfEngine  string
	noFuzzy    bool
	noPreproc  bool
	configured *common.Config
	logger     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if _, werr := fmt.Fprintf(os.Stderr, "Error: %v\n", err); werr != nil {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "receipt-parse",
		Short:         "Parse receipts into merchant, date, line items and totals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")
	f.StringVar(&opts.logFormat, "log-format", "", "json|text")
	f.StringVar(&opts.dbDriver, "db-driver", "", "postgres|sqlite")
	f.StringVar(&opts.dbDSN, "db-dsn", "", "database DSN; empty disables persistence")
	f.StringVar(&opts.cachePath, "cache", "", "bolt file caching extracted text; empty disables the cache")
	f.StringVar(&opts.merchants, "merchants", "", "merchant table YAML overriding the embedded one")
	f.StringVar(&opts.ocrEngine, "ocr-engine", "", "tesseract|gosseract")
	f.StringVar(&opts.pdfEngine, "pdf-engine", "", "fitz|pdftotext")
	f.BoolVar(&opts.noFuzzy, "no-fuzzy", false, "disable fuzzy merchant matching")
	f.BoolVar(&opts.noPreproc, "no-preprocess", false, "skip image pre-processing before OCR")

	root.AddCommand(
		newParseCmd(opts),
		newBatchCmd(opts),
		newOCRCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
		newDBHealthCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// load reads the environment config, applies flag overrides and installs the logger.
func (o *rootOptions) load(cmd *cobra.Command, stderr io.Writer) error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("log-level", &cfg.Log.Level, o.logLevel)
	set("log-format", &cfg.Log.Format, o.logFormat)
	set("db-driver", &cfg.Database.Driver, o.dbDriver)
	set("db-dsn", &cfg.Database.DSN, o.dbDSN)
	set("cache", &cfg.Cache.Path, o.cachePath)
	set("merchants", &cfg.Parse.MerchantTable, o.merchants)
	set("ocr-engine", &cfg.OCR.Engine, o.ocrEngine)
	set("pdf-engine", &cfg.OCR.PDFEngine, o.pdfEngine)
	if o.noFuzzy {
		cfg.Parse.FuzzyEnabled = false
	}
	if o.noPreproc {
		cfg.OCR.Preprocess = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.configured = cfg
	o.logger = common.NewLogger(cfg.Log, stderr)
	slog.SetDefault(o.logger)
	return nil
}
