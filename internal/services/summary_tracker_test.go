package services

import (
	"context"
	"testing"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryTrackerUnitCursor(t *testing.T) {
	st := memstore.New()
	tracker := NewSummaryTracker(st.Repos().Summary)
	ctx := context.Background()
	key := models.UnitCursorKey{ProductID: testProductID, Level: "level0", GenerationID: "GEN1"}

	offset, err := tracker.UnitOffset(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, offset)

	require.NoError(t, tracker.ConsumeUnit(ctx, key, "Paracetamol", 5))
	require.NoError(t, tracker.ConsumeUnit(ctx, key, "Paracetamol", 3))

	offset, err = tracker.UnitOffset(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 8, offset)

	other := key
	other.Level = "level1"
	offset, err = tracker.UnitOffset(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, offset)
}

func TestSummaryTrackerPoolOffsetSpansAllKeys(t *testing.T) {
	st := memstore.New()
	tracker := NewSummaryTracker(st.Repos().Summary)
	ctx := context.Background()

	offset, err := tracker.PoolOffset(ctx)
	require.NoError(t, err)
	assert.Zero(t, offset)

	a := models.UnitCursorKey{ProductID: testProductID, Level: "level0", GenerationID: "GEN1"}
	b := models.UnitCursorKey{ProductID: testOtherProductID, Level: "level0", GenerationID: "GEN1"}
	require.NoError(t, tracker.ConsumeUnit(ctx, a, "Paracetamol", 3))
	require.NoError(t, tracker.ConsumeUnit(ctx, b, "Ibuprofen", 4))

	offset, err = tracker.PoolOffset(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, offset)

	offset, err = tracker.UnitOffset(ctx, b)
	require.NoError(t, err)
	assert.EqualValues(t, 4, offset)
}

func TestSummaryTrackerContainerCursor(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	require.NoError(t, NewProvisioner(st.Repos().Schema).EnsureContainerStorage(ctx))
	tracker := NewSummaryTracker(st.Repos().Summary)

	require.NoError(t, tracker.ConsumeContainer(ctx, testPrefix, 4))
	require.NoError(t, tracker.ConsumeContainer(ctx, testPrefix, 6))

	offset, err := tracker.ContainerOffset(ctx, testPrefix)
	require.NoError(t, err)
	assert.EqualValues(t, 10, offset)

	offset, err = tracker.ContainerOffset(ctx, "0614141")
	require.NoError(t, err)
	assert.Zero(t, offset)
}

func TestSummaryTrackerContainerNeedsStorage(t *testing.T) {
	tracker := NewSummaryTracker(memstore.New().Repos().Summary)
	_, err := tracker.ContainerOffset(context.Background(), testPrefix)
	require.Error(t, err)
}
