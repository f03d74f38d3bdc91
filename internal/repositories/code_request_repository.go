package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/models"
)

type CodeRequestRepository struct {
	DB DBTX
}

func NewCodeRequestRepository(db DBTX) *CodeRequestRepository {
	return &CodeRequestRepository{DB: db}
}

// ListPending returns requests waiting for codes, oldest first
func (r *CodeRequestRepository) ListPending(ctx context.Context, requireESign bool) ([]models.CodeRequest, error) {
	query := `
		SELECT id::text, product_id::text, batch_id::text, packaging_hierarchy,
		       no_of_codes, generation_id, status, COALESCE(esign_status, ''), created_at
		FROM code_generation_requests
		WHERE status = $1
		  AND ($2::boolean = false OR esign_status = $3)
		ORDER BY created_at ASC
	`

	rows, err := r.DB.Query(ctx, query, models.StatusRequested, requireESign, models.ESignApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending code requests: %w", err)
	}
	defer rows.Close()

	var requests []models.CodeRequest
	for rows.Next() {
		var req models.CodeRequest
		err := rows.Scan(
			&req.ID,
			&req.ProductID,
			&req.BatchID,
			&req.PackagingHierarchy,
			&req.NoOfCodes,
			&req.GenerationID,
			&req.Status,
			&req.ESignStatus,
			&req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan code request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateStatus moves a request forward; backward transitions match no row
func (r *CodeRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	query := `
		UPDATE code_generation_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	previous := make([]string, 0, 2)
	for _, p := range status.Predecessors() {
		previous = append(previous, string(p))
	}

	tag, err := r.DB.Exec(ctx, query, status, id, previous)
	if err != nil {
		return fmt.Errorf("failed to update code request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("code request %s cannot move to %s", id, status)
	}
	return nil
}
