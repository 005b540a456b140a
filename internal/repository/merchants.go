package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/merchant"
)

var merchantColumns = []string{"id", "display_name", "normalized_name", "created_at"}

// MerchantStore is a merchant.Registry backed by the merchants table. The
// unique index on normalized_name makes Create atomic across processes.
type MerchantStore struct {
	drv    dialect.Driver
	logger *slog.Logger
	now    func() time.Time
}

var _ merchant.Registry = (*MerchantStore)(nil)

func NewMerchantStore(drv dialect.Driver, logger *slog.Logger) *MerchantStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MerchantStore{drv: drv, logger: logger, now: time.Now}
}

func (s *MerchantStore) FindByNormalizedName(ctx context.Context, normalized string) (*entity.Merchant, error) {
	query, args := entsql.Dialect(s.drv.Dialect()).
		Select(merchantColumns...).
		From(entsql.Table(MerchantsTable.Name)).
		Where(entsql.EQ("normalized_name", normalized)).
		Query()
	ms, err := s.query(ctx, query, args)
	if err != nil {
		s.logger.Error("failed to find merchant", "normalized_name", normalized, "error", err)
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return &ms[0], nil
}

// ListAll returns merchants in creation order.
func (s *MerchantStore) ListAll(ctx context.Context) ([]entity.Merchant, error) {
	query, args := entsql.Dialect(s.drv.Dialect()).
		Select(merchantColumns...).
		From(entsql.Table(MerchantsTable.Name)).
		OrderBy("created_at", "normalized_name").
		Query()
	ms, err := s.query(ctx, query, args)
	if err != nil {
		s.logger.Error("failed to list merchants", "error", err)
		return nil, err
	}
	return ms, nil
}

// Create inserts the merchant unless the normalized name is taken, in which
// case it returns common.ErrMerchantExists and leaves the row alone.
func (s *MerchantStore) Create(ctx context.Context, displayName, normalized string) (entity.Merchant, error) {
	if normalized == "" {
		return entity.Merchant{}, fmt.Errorf("%w: empty normalized merchant name", common.ErrInvalidInput)
	}
	m := entity.Merchant{
		ID:             uuid.New(),
		DisplayName:    displayName,
		NormalizedName: normalized,
		CreatedAt:      s.now().UTC(),
	}
	query, args := entsql.Dialect(s.drv.Dialect()).
		Insert(MerchantsTable.Name).
		Columns(merchantColumns...).
		Values(m.ID, m.DisplayName, m.NormalizedName, m.CreatedAt).
		OnConflict(entsql.ConflictColumns("normalized_name"), entsql.DoNothing()).
		Query()

	var res entsql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		s.logger.Error("failed to create merchant", "normalized_name", normalized, "error", err)
		return entity.Merchant{}, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entity.Merchant{}, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if n == 0 {
		return entity.Merchant{}, common.ErrMerchantExists
	}
	s.logger.Debug("merchant created", "merchant_id", m.ID, "normalized_name", normalized)
	return m, nil
}

func (s *MerchantStore) query(ctx context.Context, query string, args []any) ([]entity.Merchant, error) {
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.Merchant
	for rows.Next() {
		var m entity.Merchant
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.NormalizedName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}
