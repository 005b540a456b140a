package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

// OutcomeStore writes parse outcomes with their line items and price
// observations. Merchants referenced by outcomes must come from the same
// database, normally through a MerchantStore.
type OutcomeStore struct {
	drv    dialect.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewOutcomeStore(drv dialect.Driver, logger *slog.Logger) *OutcomeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutcomeStore{drv: drv, logger: logger, now: time.Now}
}

// SaveOutcome stores one receipts row and one line_items row per item. When
// both the merchant and the purchase date are known each item also becomes a
// price observation. Everything is written in a single transaction.
func (s *OutcomeStore) SaveOutcome(ctx context.Context, doc entity.Document, out entity.ParseOutcome) error {
	receiptID := uuid.New()
	var merchantID uuid.NullUUID
	if out.Merchant != nil && out.Merchant.ID != uuid.Nil {
		merchantID = uuid.NullUUID{UUID: out.Merchant.ID, Valid: true}
	}
	var purchaseDate entsql.NullTime
	if out.PurchaseDate != nil {
		purchaseDate = entsql.NullTime{Time: utils.DateOnly(*out.PurchaseDate), Valid: true}
	}

	err := s.withTx(ctx, func(tx dialect.Tx) error {
		b := entsql.Dialect(s.drv.Dialect())
		query, args := b.Insert(ReceiptsTable.Name).
			Columns("id", "source_name", "content_hash", "status", "message", "confidence",
				"purchase_date", "total", "tax", "created_at", "merchant_id").
			Values(receiptID, doc.Name, doc.HashHex(), string(out.Status), out.Message, out.OverallConfidence,
				purchaseDate, nullDecimal(out.Total), nullDecimal(out.Tax), s.now().UTC(), merchantID).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}

		observe := merchantID.Valid && purchaseDate.Valid
		for _, it := range out.LineItems {
			itemID := uuid.New()
			query, args = b.Insert(LineItemsTable.Name).
				Columns("id", "line_number", "raw_name", "normalized_name", "quantity", "unit_price", "price", "receipt_id").
				Values(itemID, it.LineNumber, it.RawName, it.NormalizedName,
					nullDecimal(it.Quantity), nullDecimal(it.UnitPrice), it.Price, receiptID).
				Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("insert line item %d: %w", it.LineNumber, err)
			}
			if !observe {
				continue
			}
			query, args = b.Insert(PriceObservationsTable.Name).
				Columns("id", "product_name", "price", "observed_date", "merchant_id", "line_item_id").
				Values(uuid.New(), it.NormalizedName, it.Price, purchaseDate.Time, merchantID.UUID, itemID).
				Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("insert price observation %d: %w", it.LineNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to save outcome", "source", doc.Name, "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	s.logger.Debug("outcome saved", "receipt_id", receiptID, "source", doc.Name, "items", len(out.LineItems))
	return nil
}

// ListReceipts returns stored receipts, optionally bounded by purchase date,
// ordered by purchase date then creation time.
func (s *OutcomeStore) ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]entity.Receipt, error) {
	sel := entsql.Dialect(s.drv.Dialect()).
		Select("id", "source_name", "content_hash", "status", "message", "confidence",
			"merchant_id", "purchase_date", "total", "tax", "created_at").
		From(entsql.Table(ReceiptsTable.Name))
	var preds []*entsql.Predicate
	if fromDate != nil {
		preds = append(preds, entsql.GTE("purchase_date", utils.DateOnly(*fromDate)))
	}
	if toDate != nil {
		preds = append(preds, entsql.LTE("purchase_date", utils.DateOnly(*toDate)))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	query, args := sel.OrderBy("purchase_date", "created_at").Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.Receipt
	for rows.Next() {
		var (
			r          entity.Receipt
			status     string
			merchantID uuid.NullUUID
			date       entsql.NullTime
			total, tax apd.NullDecimal
		)
		if err := rows.Scan(&r.ID, &r.SourceName, &r.ContentHash, &status, &r.Message, &r.Confidence,
			&merchantID, &date, &total, &tax, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		r.Status = constants.ParseStatus(status)
		if merchantID.Valid {
			id := merchantID.UUID
			r.MerchantID = &id
		}
		if date.Valid {
			d := utils.DateOnly(date.Time)
			r.PurchaseDate = &d
		}
		r.Total = decimalPtr(total)
		r.Tax = decimalPtr(tax)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}

// PriceHistory returns every observation of a normalized product name,
// oldest first.
func (s *OutcomeStore) PriceHistory(ctx context.Context, normalizedProduct string) ([]entity.PriceObservation, error) {
	query, args := entsql.Dialect(s.drv.Dialect()).
		Select("id", "product_name", "merchant_id", "price", "observed_date", "line_item_id").
		From(entsql.Table(PriceObservationsTable.Name)).
		Where(entsql.EQ("product_name", utils.NormalizeProductName(normalizedProduct))).
		OrderBy("observed_date").
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		s.logger.Error("failed to query price history", "product", normalizedProduct, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.PriceObservation
	for rows.Next() {
		var o entity.PriceObservation
		if err := rows.Scan(&o.ID, &o.ProductName, &o.MerchantID, &o.Price, &o.ObservedDate, &o.LineItemID); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		o.ObservedDate = utils.DateOnly(o.ObservedDate)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *OutcomeStore) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullDecimal(d *apd.Decimal) apd.NullDecimal {
	if d == nil {
		return apd.NullDecimal{}
	}
	return apd.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(nd apd.NullDecimal) *apd.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}
