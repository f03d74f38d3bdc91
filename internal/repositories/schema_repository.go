package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/store"

	"github.com/jackc/pgx/v5"
)

// SchemaRepository creates the tables that are provisioned lazily at
// allocation time instead of by migrations
type SchemaRepository struct {
	DB DBTX
}

func NewSchemaRepository(db DBTX) *SchemaRepository {
	return &SchemaRepository{DB: db}
}

const unitCodeTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		serial_no BIGINT NOT NULL UNIQUE REFERENCES codes_generated(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		batch_id UUID NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		unique_code VARCHAR(255) NOT NULL,
		location_id UUID,
		code_gen_id VARCHAR(255) NOT NULL,
		country_code VARCHAR(1000) NOT NULL,
		printed BOOLEAN DEFAULT FALSE,
		is_scanned BOOLEAN DEFAULT FALSE,
		is_aggregated BOOLEAN DEFAULT FALSE,
		is_dropped BOOLEAN DEFAULT FALSE,
		parent_id UUID DEFAULT NULL,
		sent_to_cloud BOOLEAN DEFAULT FALSE,
		dropout_reason VARCHAR(20) DEFAULT NULL,
		is_scanned_in_order BOOLEAN DEFAULT FALSE,
		storage_bin INTEGER,
		in_transit BOOLEAN DEFAULT FALSE,
		updated_at TIMESTAMP DEFAULT NOW(),
		created_at TIMESTAMP DEFAULT NOW()
	)
`

const containerCodeTableDDL = `
	CREATE TABLE IF NOT EXISTS sscc_codes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		serial_no INTEGER DEFAULT NULL,
		sscc_code VARCHAR(255) NOT NULL UNIQUE,
		pack_level INTEGER NOT NULL,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		batch_id UUID NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		product_history_id UUID,
		location_id UUID,
		code_gen_id UUID NOT NULL REFERENCES code_generation_requests(id) ON DELETE CASCADE,
		printed BOOLEAN DEFAULT FALSE,
		is_aggregated BOOLEAN DEFAULT FALSE,
		is_dropped BOOLEAN DEFAULT FALSE,
		parent_id UUID DEFAULT NULL,
		sent_to_cloud BOOLEAN DEFAULT FALSE,
		dropout_reason VARCHAR(20) DEFAULT NULL,
		is_scanned_in_order BOOLEAN DEFAULT FALSE,
		is_opened BOOLEAN DEFAULT FALSE,
		updated_at TIMESTAMP DEFAULT NOW(),
		created_at TIMESTAMP DEFAULT NOW()
	)
`

const containerSummaryTableDDL = `
	CREATE TABLE IF NOT EXISTS sscc_code_summary (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_prefix VARCHAR(16) NOT NULL UNIQUE,
		last_generated BIGINT NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW(),
		created_at TIMESTAMP DEFAULT NOW()
	)
`

func (r *SchemaRepository) TableExists(ctx context.Context, name string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = current_schema()
			  AND table_name = $1
		)
	`

	var exists bool
	if err := r.DB.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return exists, nil
}

// CreateUnitCodeTable creates a per-(generation, level) code table. The name
// must pass store.ValidTableName and is quoted as an identifier.
func (r *SchemaRepository) CreateUnitCodeTable(ctx context.Context, name string) error {
	if !store.ValidTableName(name) {
		return fmt.Errorf("refusing to create table with invalid name %q", name)
	}

	ddl := fmt.Sprintf(unitCodeTableDDL, pgx.Identifier{name}.Sanitize())
	if _, err := r.DB.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

func (r *SchemaRepository) CreateContainerCodeTable(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, containerCodeTableDDL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", store.ContainerCodesTable, err)
	}
	return nil
}

func (r *SchemaRepository) CreateContainerSummaryTable(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, containerSummaryTableDDL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", store.ContainerSummaryTable, err)
	}
	return nil
}
