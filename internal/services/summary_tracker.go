package services

import (
	"context"
	"errors"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

// SummaryTracker reads and advances the consumption cursors. A unit cursor
// counts the pool entries handed to its key; the entries themselves are
// taken in one global order, so the next unit allocation starts at the sum
// of all unit cursors. A container cursor is the last SSCC sequence used
// for a company prefix.
type SummaryTracker struct {
	summary store.SummaryStore
}

func NewSummaryTracker(summary store.SummaryStore) *SummaryTracker {
	return &SummaryTracker{summary: summary}
}

func (t *SummaryTracker) UnitOffset(ctx context.Context, key models.UnitCursorKey) (int64, error) {
	cur, err := t.summary.GetUnitCursor(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cur.LastGenerated, nil
}

// PoolOffset is the pool position of the next unit allocation for any key.
func (t *SummaryTracker) PoolOffset(ctx context.Context) (int64, error) {
	return t.summary.UnitConsumedTotal(ctx)
}

// ConsumeUnit creates the cursor at count or advances it by count.
func (t *SummaryTracker) ConsumeUnit(ctx context.Context, key models.UnitCursorKey, productName string, count int64) error {
	cur, err := t.summary.GetUnitCursor(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return t.summary.CreateUnitCursor(ctx, &models.UnitCursor{
			ProductID:     key.ProductID,
			ProductName:   productName,
			Level:         key.Level,
			GenerationID:  key.GenerationID,
			LastGenerated: count,
		})
	case err != nil:
		return err
	}
	return t.summary.AddToUnitCursor(ctx, cur.ID, count)
}

func (t *SummaryTracker) ContainerOffset(ctx context.Context, prefix string) (int64, error) {
	cur, err := t.summary.GetContainerCursor(ctx, prefix)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cur.LastGenerated, nil
}

func (t *SummaryTracker) ConsumeContainer(ctx context.Context, prefix string, count int64) error {
	cur, err := t.summary.GetContainerCursor(ctx, prefix)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return t.summary.CreateContainerCursor(ctx, &models.ContainerCursor{
			CompanyPrefix: prefix,
			LastGenerated: count,
		})
	case err != nil:
		return err
	}
	return t.summary.AddToContainerCursor(ctx, cur.ID, count)
}
