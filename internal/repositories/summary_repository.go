package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

// SummaryRepository tracks the consumption cursors for unit and
// container codes
type SummaryRepository struct {
	DB DBTX
}

func NewSummaryRepository(db DBTX) *SummaryRepository {
	return &SummaryRepository{DB: db}
}

func (r *SummaryRepository) GetUnitCursor(ctx context.Context, key models.UnitCursorKey) (*models.UnitCursor, error) {
	query := `
		SELECT id::text, product_id::text, COALESCE(product_name, ''), packaging_hierarchy,
		       generation_id, last_generated, updated_at
		FROM code_generation_summary
		WHERE product_id = $1::uuid AND packaging_hierarchy = $2 AND generation_id = $3
	`

	c := &models.UnitCursor{}
	err := r.DB.QueryRow(ctx, query, key.ProductID, key.Level, key.GenerationID).Scan(
		&c.ID,
		&c.ProductID,
		&c.ProductName,
		&c.Level,
		&c.GenerationID,
		&c.LastGenerated,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *SummaryRepository) CreateUnitCursor(ctx context.Context, c *models.UnitCursor) error {
	query := `
		INSERT INTO code_generation_summary
			(product_id, product_name, packaging_hierarchy, generation_id, last_generated)
		VALUES ($1::uuid, $2, $3, $4, $5)
		RETURNING id::text, updated_at
	`

	err := r.DB.QueryRow(ctx, query,
		c.ProductID,
		c.ProductName,
		c.Level,
		c.GenerationID,
		c.LastGenerated,
	).Scan(&c.ID, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unit cursor: %w", err)
	}
	return nil
}

func (r *SummaryRepository) AddToUnitCursor(ctx context.Context, id string, n int64) error {
	query := `
		UPDATE code_generation_summary
		SET last_generated = last_generated + $1, updated_at = NOW()
		WHERE id = $2::uuid
	`

	tag, err := r.DB.Exec(ctx, query, n, id)
	if err != nil {
		return fmt.Errorf("failed to advance unit cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unit cursor %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *SummaryRepository) AnyUnitCursorReached(ctx context.Context, threshold float64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM code_generation_summary WHERE last_generated >= $1::float8
		)
	`

	var reached bool
	if err := r.DB.QueryRow(ctx, query, threshold).Scan(&reached); err != nil {
		return false, fmt.Errorf("failed to check cursor threshold: %w", err)
	}
	return reached, nil
}

func (r *SummaryRepository) UnitConsumedTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(last_generated), 0)::bigint FROM code_generation_summary`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unit cursors: %w", err)
	}
	return total, nil
}

func (r *SummaryRepository) GetContainerCursor(ctx context.Context, prefix string) (*models.ContainerCursor, error) {
	query := `
		SELECT id::text, company_prefix, last_generated, updated_at
		FROM sscc_code_summary
		WHERE company_prefix = $1
	`

	c := &models.ContainerCursor{}
	err := r.DB.QueryRow(ctx, query, prefix).Scan(
		&c.ID,
		&c.CompanyPrefix,
		&c.LastGenerated,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *SummaryRepository) CreateContainerCursor(ctx context.Context, c *models.ContainerCursor) error {
	query := `
		INSERT INTO sscc_code_summary (company_prefix, last_generated)
		VALUES ($1, $2)
		RETURNING id::text, updated_at
	`

	if err := r.DB.QueryRow(ctx, query, c.CompanyPrefix, c.LastGenerated).Scan(&c.ID, &c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create sscc cursor: %w", err)
	}
	return nil
}

func (r *SummaryRepository) AddToContainerCursor(ctx context.Context, id string, n int64) error {
	query := `
		UPDATE sscc_code_summary
		SET last_generated = last_generated + $1, updated_at = NOW()
		WHERE id = $2::uuid
	`

	tag, err := r.DB.Exec(ctx, query, n, id)
	if err != nil {
		return fmt.Errorf("failed to advance sscc cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sscc cursor %s: %w", id, store.ErrNotFound)
	}
	return nil
}
