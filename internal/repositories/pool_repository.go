package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/models"
)

// PoolRepository stores the shared pool of pre-generated codes
type PoolRepository struct {
	DB DBTX
}

func NewPoolRepository(db DBTX) *PoolRepository {
	return &PoolRepository{DB: db}
}

func (r *PoolRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM codes_generated`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pool codes: %w", err)
	}
	return count, nil
}

// InsertSkipDuplicates bulk inserts codes; codes already in the pool (or
// repeated within the batch) are skipped by the unique constraint
func (r *PoolRepository) InsertSkipDuplicates(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO codes_generated (code)
		SELECT unnest($1::text[])
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := r.DB.Exec(ctx, query, codes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pool codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Fetch returns pool entries in sequence order starting after offset
func (r *PoolRepository) Fetch(ctx context.Context, offset, limit int64) ([]models.PoolEntry, error) {
	query := `
		SELECT id, code, created_at
		FROM codes_generated
		ORDER BY id
		OFFSET $1
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool codes: %w", err)
	}
	defer rows.Close()

	entries := make([]models.PoolEntry, 0, limit)
	for rows.Next() {
		var e models.PoolEntry
		if err := rows.Scan(&e.ID, &e.Code, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pool code: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
