package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/joseph-ayodele/receipts-parser/internal/cache"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/core"
	"github.com/joseph-ayodele/receipts-parser/internal/extract"
	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/merchant"
	"github.com/joseph-ayodele/receipts-parser/internal/ocr"
	"github.com/joseph-ayodele/receipts-parser/internal/patterns"
	"github.com/joseph-ayodele/receipts-parser/internal/repository"
)

// app holds the wired components for one command run.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	text      *ocr.Extractor
	processor *core.Processor
	db        *repository.DB
	merchants merchant.Registry
	outcomes  *repository.OutcomeStore // nil without a database
	closers   []func() error
}

// buildApp resolves capabilities once and wires the pipeline. A database is
// opened and migrated only when a DSN is configured; otherwise merchants
// live in memory for the duration of the run.
func buildApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	ocrCfg := ocr.FromCommon(cfg.OCR)
	caps := ocr.DetectCapabilities(ocrCfg, cfg.Parse.FuzzyEnabled, exec.LookPath)
	logger.Info("capabilities resolved", "ocr", caps.OCR, "pdf", caps.PDF, "fuzzy", caps.Fuzzy,
		"ocr_engine", cfg.OCR.Engine, "pdf_engine", cfg.OCR.PDFEngine)

	engine, pdf, err := ocr.NewEngines(ocrCfg, caps, ocr.ExecRunner{}, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := engine.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.text = ocr.NewExtractor(ocrCfg, caps, engine, pdf, logger)

	table := patterns.Default()
	if cfg.Parse.MerchantTable != "" {
		if table, err = patterns.LoadFile(cfg.Parse.MerchantTable); err != nil {
			a.close()
			return nil, common.NewAppError(common.CodeConfig, "load merchant table", err)
		}
	}
	var scorer fuzzy.Scorer
	if caps.Fuzzy {
		scorer = fuzzy.Default()
	}

	var opts []core.Option
	a.merchants = merchant.NewMemoryRegistry()
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, func() error { db.Close(logger); return nil })
		if err := repository.Migrate(ctx, db.Driver); err != nil {
			a.close()
			return nil, err
		}
		a.merchants = repository.NewMerchantStore(db.Driver, logger)
		a.outcomes = repository.NewOutcomeStore(db.Driver, logger)
		opts = append(opts, core.WithOutcomeSink(a.outcomes))
	}
	if cfg.Cache.Path != "" {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		opts = append(opts, core.WithTextCache(c))
	}

	resolver := merchant.NewResolver(a.merchants, scorer, logger)
	a.processor = core.NewProcessor(logger, a.text, extract.NewExtractor(table, scorer), resolver, opts...)
	return a, nil
}

// requireDB fails commands that only make sense with persistence.
func (a *app) requireDB() error {
	if a.db == nil {
		return fmt.Errorf("%w: this command needs a database, set RECEIPTS_DB_DSN or --db-dsn", common.ErrInvalidInput)
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp builds the app for a command and closes it afterwards.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := buildApp(ctx, o.configured, o.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			o.logger.Error("failed to release resources", "error", cerr)
		}
	}()
	return fn(a)
}
