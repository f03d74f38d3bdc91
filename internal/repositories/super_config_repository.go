package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

type SuperConfigRepository struct {
	DB DBTX
}

func NewSuperConfigRepository(db DBTX) *SuperConfigRepository {
	return &SuperConfigRepository{DB: db}
}

// GetSuperConfig returns the first configuration row
func (r *SuperConfigRepository) GetSuperConfig(ctx context.Context) (*models.SuperConfig, error) {
	query := `
		SELECT id::text, code_length, codes_type, COALESCE(product_code_length, 0),
		       COALESCE(total_code_generated, 0), COALESCE(esign_status, false), COALESCE(crm_url, '')
		FROM superadmin_configuration
		ORDER BY created_at
		LIMIT 1
	`

	cfg := &models.SuperConfig{}
	err := r.DB.QueryRow(ctx, query).Scan(
		&cfg.ID,
		&cfg.CodeLength,
		&cfg.CodesType,
		&cfg.ProductCodeLength,
		&cfg.TotalCodeGenerated,
		&cfg.ESignStatus,
		&cfg.CRMURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load super config: %w", notFound(err))
	}
	return cfg, nil
}

func (r *SuperConfigRepository) AddTotalCodeGenerated(ctx context.Context, id string, n int64) error {
	query := `
		UPDATE superadmin_configuration
		SET total_code_generated = COALESCE(total_code_generated, 0) + $1, updated_at = NOW()
		WHERE id = $2::uuid
	`

	tag, err := r.DB.Exec(ctx, query, n, id)
	if err != nil {
		return fmt.Errorf("failed to update total_code_generated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("super config %s: %w", id, store.ErrNotFound)
	}
	return nil
}
