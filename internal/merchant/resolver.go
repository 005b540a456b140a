package merchant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/fuzzy"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

const (
	// FuzzyThreshold must be strictly exceeded for a fuzzy registry hit.
	FuzzyThreshold   = 0.85
	maxCreateRetries = 3
)

// Resolver maps an extracted merchant string onto a registry record,
// creating one when nothing close enough exists.
type Resolver struct {
	registry Registry
	scorer   fuzzy.Scorer
	logger   *slog.Logger
}

// NewResolver builds a Resolver. A nil scorer disables fuzzy matching.
func NewResolver(registry Registry, scorer fuzzy.Scorer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, scorer: scorer, logger: logger}
}

// Resolve looks the name up exactly, then fuzzily, then creates it.
func (r *Resolver) Resolve(ctx context.Context, name string) (entity.Merchant, error) {
	normalized := utils.NormalizeName(name)
	if normalized == "" {
		return entity.Merchant{}, fmt.Errorf("%w: merchant name %q normalizes to empty", common.ErrInvalidInput, name)
	}

	if m, err := r.registry.FindByNormalizedName(ctx, normalized); err != nil {
		return entity.Merchant{}, fmt.Errorf("find merchant: %w", err)
	} else if m != nil {
		r.logger.Debug("merchant.resolve.exact", "normalized", normalized, "merchant_id", m.ID)
		return *m, nil
	}

	if r.scorer != nil {
		m, score, err := r.bestFuzzy(ctx, normalized)
		if err != nil {
			return entity.Merchant{}, err
		}
		if m != nil {
			r.logger.Debug("merchant.resolve.fuzzy", "normalized", normalized, "match", m.NormalizedName, "score", score)
			return *m, nil
		}
	}

	return r.create(ctx, name, normalized)
}

func (r *Resolver) bestFuzzy(ctx context.Context, normalized string) (*entity.Merchant, float64, error) {
	all, err := r.registry.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list merchants: %w", err)
	}
	var (
		best  float64
		found *entity.Merchant
	)
	for i := range all {
		s := r.scorer.Ratio(normalized, all[i].NormalizedName)
		if s > best {
			best, found = s, &all[i]
		}
	}
	if found == nil || best <= FuzzyThreshold {
		return nil, best, nil
	}
	return found, best, nil
}

// create inserts the merchant. A concurrent insert of the same name loses
// the race with ErrMerchantExists; the winner is then looked up.
func (r *Resolver) create(ctx context.Context, display, normalized string) (entity.Merchant, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCreateRetries; attempt++ {
		m, err := r.registry.Create(ctx, display, normalized)
		if err == nil {
			r.logger.Info("merchant.created", "merchant_id", m.ID, "normalized", normalized)
			return m, nil
		}
		if !errors.Is(err, common.ErrMerchantExists) {
			return entity.Merchant{}, fmt.Errorf("create merchant: %w", err)
		}

		existing, ferr := r.registry.FindByNormalizedName(ctx, normalized)
		if ferr != nil {
			return entity.Merchant{}, fmt.Errorf("find merchant after conflict: %w", ferr)
		}
		if existing != nil {
			return *existing, nil
		}
		lastErr = err
		r.logger.Warn("merchant.create.conflict_without_winner", "normalized", normalized, "attempt", attempt)
	}
	return entity.Merchant{}, common.NewAppError(common.CodeMerchantConflict,
		fmt.Sprintf("could not resolve merchant %q after %d attempts", normalized, maxCreateRetries), lastErr)
}
