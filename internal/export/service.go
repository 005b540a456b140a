// Package export renders parse outcomes and stored receipts as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
	"github.com/joseph-ayodele/receipts-parser/internal/money"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

const (
	ReceiptsSheet  = "Receipts"
	LineItemsSheet = "Line Items"
)

// ReceiptLister lists stored receipts in a purchase date window.
type ReceiptLister interface {
	ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]entity.Receipt, error)
}

// MerchantLister lists registry merchants.
type MerchantLister interface {
	ListAll(ctx context.Context) ([]entity.Merchant, error)
}

// Row is one parsed document to export.
type Row struct {
	Source  string
	Outcome entity.ParseOutcome
}

// Service is a tiny façade that produces XLSX bytes for exports. The listers
// are only needed by ReceiptsXLSX.
type Service struct {
	receipts  ReceiptLister
	merchants MerchantLister
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(receipts ReceiptLister, merchants MerchantLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: receipts, merchants: merchants, logger: logger, now: time.Now}
}

var receiptHeaders = []string{
	"Source",
	"Status",
	"Confidence",
	"Merchant",
	"Purchase Date",
	"Total",
	"Tax",
	"Items",
	"Issues",
}

var lineItemHeaders = []string{
	"Source",
	"Line",
	"Item",
	"Normalized Name",
	"Quantity",
	"Unit Price",
	"Price",
}

// OutcomesXLSX returns a workbook with one "Receipts" row per outcome and
// one "Line Items" row per extracted item, in input order.
func (s *Service) OutcomesXLSX(_ context.Context, rows []Row) ([]byte, error) {
	start := time.Now()
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, li := 2, 2
	for _, row := range rows {
		out := row.Outcome
		var merchant string
		if out.Merchant != nil {
			merchant = out.Merchant.DisplayName
		}
		writeRow(f, ReceiptsSheet, r,
			row.Source,
			string(out.Status),
			out.OverallConfidence,
			merchant,
			formatDate(out.PurchaseDate),
			amount(out.Total),
			amount(out.Tax),
			len(out.LineItems),
			utils.Truncate(strings.Join(out.Issues, " "), 250),
		)
		r++

		for _, it := range out.LineItems {
			writeRow(f, LineItemsSheet, li,
				row.Source,
				it.LineNumber,
				it.RawName,
				it.NormalizedName,
				amount(it.Quantity),
				amount(it.UnitPrice),
				amount(&it.Price),
			)
			li++
		}
	}

	b, err := finish(f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.outcomes.xlsx.ok",
		"receipts", len(rows),
		"line_items", li-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// ReceiptsXLSX exports stored receipts in a purchase date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all receipts.
func (s *Service) ReceiptsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	if s.receipts == nil {
		return nil, fmt.Errorf("receipts export needs a receipt store")
	}
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := utils.DateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := utils.DateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := utils.DateOnly(s.now().UTC())
		toDate = &t
	}

	recs, err := s.receipts.ListReceipts(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	names := map[uuid.UUID]string{}
	if s.merchants != nil {
		ms, err := s.merchants.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("query merchants: %w", err)
		}
		for _, m := range ms {
			names[m.ID] = m.DisplayName
		}
	}

	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i, rec := range recs {
		var merchant string
		if rec.MerchantID != nil {
			merchant = names[*rec.MerchantID]
		}
		writeRow(f, ReceiptsSheet, i+2,
			rec.SourceName,
			string(rec.Status),
			rec.Confidence,
			merchant,
			formatDate(rec.PurchaseDate),
			amount(rec.Total),
			amount(rec.Tax),
			"",
			utils.Truncate(rec.Message, 250),
		)
	}

	b, err := finish(f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.receipts.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		return nil, err
	}
	index, err := f.GetSheetIndex(ReceiptsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	writeHeader(f, ReceiptsSheet, receiptHeaders)
	writeHeader(f, LineItemsSheet, lineItemHeaders)

	// Widen a few columns
	_ = f.SetColWidth(ReceiptsSheet, "A", "A", 40) // source
	_ = f.SetColWidth(ReceiptsSheet, "B", "C", 14) // status, confidence
	_ = f.SetColWidth(ReceiptsSheet, "D", "D", 28) // merchant
	_ = f.SetColWidth(ReceiptsSheet, "E", "G", 14) // date, amounts
	_ = f.SetColWidth(ReceiptsSheet, "I", "I", 60) // issues
	_ = f.SetColWidth(LineItemsSheet, "A", "A", 40)
	_ = f.SetColWidth(LineItemsSheet, "C", "D", 32)
	_ = f.SetColWidth(LineItemsSheet, "E", "G", 12)

	money2, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}
	_ = f.SetColStyle(ReceiptsSheet, "F:G", money2)
	_ = f.SetColStyle(LineItemsSheet, "F:G", money2)
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func finish(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// amount returns a float for numeric cells, or "" when absent.
func amount(d *apd.Decimal) any {
	if d == nil {
		return ""
	}
	return money.Float(d)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(entity.DateLayout)
}
