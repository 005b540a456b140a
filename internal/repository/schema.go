package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// MerchantsColumns holds the columns for the "merchants" table.
	MerchantsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "display_name", Type: field.TypeString},
		{Name: "normalized_name", Type: field.TypeString, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// MerchantsTable holds the schema information for the "merchants" table.
	MerchantsTable = &schema.Table{
		Name:       "merchants",
		Columns:    MerchantsColumns,
		PrimaryKey: []*schema.Column{MerchantsColumns[0]},
	}

	// ReceiptsColumns holds the columns for the "receipts" table.
	ReceiptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "source_name", Type: field.TypeString},
		{Name: "content_hash", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "message", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeFloat64},
		{Name: "purchase_date", Type: field.TypeTime, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "date"}},
		{Name: "total", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "numeric(12,2)"}},
		{Name: "tax", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "numeric(12,2)"}},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "merchant_id", Type: field.TypeUUID, Nullable: true},
	}
	// ReceiptsTable holds the schema information for the "receipts" table.
	ReceiptsTable = &schema.Table{
		Name:       "receipts",
		Columns:    ReceiptsColumns,
		PrimaryKey: []*schema.Column{ReceiptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "receipts_merchants_receipts",
				Columns:    []*schema.Column{ReceiptsColumns[10]},
				RefColumns: []*schema.Column{MerchantsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "receipt_content_hash",
				Unique:  false,
				Columns: []*schema.Column{ReceiptsColumns[2]},
			},
		},
	}

	// LineItemsColumns holds the columns for the "line_items" table.
	LineItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "line_number", Type: field.TypeInt},
		{Name: "raw_name", Type: field.TypeString},
		{Name: "normalized_name", Type: field.TypeString},
		{Name: "quantity", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "numeric(12,3)"}},
		{Name: "unit_price", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "numeric(12,2)"}},
		{Name: "price", Type: field.TypeString, SchemaType: map[string]string{dialect.Postgres: "numeric(12,2)"}},
		{Name: "receipt_id", Type: field.TypeUUID},
	}
	// LineItemsTable holds the schema information for the "line_items" table.
	LineItemsTable = &schema.Table{
		Name:       "line_items",
		Columns:    LineItemsColumns,
		PrimaryKey: []*schema.Column{LineItemsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "line_items_receipts_line_items",
				Columns:    []*schema.Column{LineItemsColumns[7]},
				RefColumns: []*schema.Column{ReceiptsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// PriceObservationsColumns holds the columns for the "price_observations" table.
	PriceObservationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "product_name", Type: field.TypeString},
		{Name: "price", Type: field.TypeString, SchemaType: map[string]string{dialect.Postgres: "numeric(12,2)"}},
		{Name: "observed_date", Type: field.TypeTime, SchemaType: map[string]string{dialect.Postgres: "date"}},
		{Name: "merchant_id", Type: field.TypeUUID},
		{Name: "line_item_id", Type: field.TypeUUID},
	}
	// PriceObservationsTable holds the schema information for the "price_observations" table.
	PriceObservationsTable = &schema.Table{
		Name:       "price_observations",
		Columns:    PriceObservationsColumns,
		PrimaryKey: []*schema.Column{PriceObservationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "price_observations_merchants_observations",
				Columns:    []*schema.Column{PriceObservationsColumns[4]},
				RefColumns: []*schema.Column{MerchantsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "price_observations_line_items_observation",
				Columns:    []*schema.Column{PriceObservationsColumns[5]},
				RefColumns: []*schema.Column{LineItemsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "priceobservation_product_name_observed_date",
				Unique:  false,
				Columns: []*schema.Column{PriceObservationsColumns[1], PriceObservationsColumns[3]},
			},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		MerchantsTable,
		ReceiptsTable,
		LineItemsTable,
		PriceObservationsTable,
	}
)

func init() {
	ReceiptsTable.ForeignKeys[0].RefTable = MerchantsTable
	LineItemsTable.ForeignKeys[0].RefTable = ReceiptsTable
	PriceObservationsTable.ForeignKeys[0].RefTable = MerchantsTable
	PriceObservationsTable.ForeignKeys[1].RefTable = LineItemsTable
}

// Migrate creates or upgrades the tables in place.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migration: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
