package services

import (
	"context"
	"testing"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCursor(t *testing.T, st *memstore.Store, last int64) {
	t.Helper()
	err := st.Repos().Summary.CreateUnitCursor(context.Background(), &models.UnitCursor{
		ProductID:     testProductID,
		Level:         "level0",
		GenerationID:  "GEN1",
		LastGenerated: last,
	})
	require.NoError(t, err)
}

func withTotal(t *testing.T, st *memstore.Store, total int64) {
	t.Helper()
	cfg, ok := st.SuperConfig()
	require.True(t, ok)
	cfg.TotalCodeGenerated = total
	st.SetSuperConfig(cfg)
}

func TestCapacityBelowThreshold(t *testing.T) {
	st := newTestStore(t, models.CodeTypeSequential, 6)
	withTotal(t, st, 100)
	seedCursor(t, st, 79)
	starter := &countingStarter{result: true}

	report, err := NewCapacityMonitor(st, NewSettingsService(st, 0), starter).Check(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Reached)
	assert.Equal(t, CapacityOK, report.Outcome)
	assert.InDelta(t, 80.0, report.Threshold, 1e-9)
	assert.Zero(t, starter.Calls())
}

func TestCapacityCountsConsumptionAcrossKeys(t *testing.T) {
	st := newTestStore(t, models.CodeTypeSequential, 6)
	withTotal(t, st, 100)
	seedCursor(t, st, 50)
	err := st.Repos().Summary.CreateUnitCursor(context.Background(), &models.UnitCursor{
		ProductID:     testOtherProductID,
		Level:         "level0",
		GenerationID:  "GEN1",
		LastGenerated: 30,
	})
	require.NoError(t, err)
	starter := &countingStarter{result: true}

	report, err := NewCapacityMonitor(st, NewSettingsService(st, 0), starter).Check(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 80, report.Consumed)
	assert.True(t, report.Reached)
	assert.Equal(t, CapacityTriggered, report.Outcome)
	assert.Equal(t, 1, starter.Calls())
}

func TestCapacityReachedStartsGeneration(t *testing.T) {
	st := newTestStore(t, models.CodeTypeSequential, 6)
	withTotal(t, st, 100)
	seedCursor(t, st, 80)
	gen := newGenerator(st, 50, 20)

	monitor := NewCapacityMonitor(st, NewSettingsService(st, 0), gen)
	report, err := monitor.Check(context.Background())
	require.NoError(t, err)
	gen.Wait()

	assert.True(t, report.Reached)
	assert.Equal(t, CapacityTriggered, report.Outcome)
	assert.Len(t, st.Pool(), 50)

	cfg, _ := st.SuperConfig()
	assert.EqualValues(t, 150, cfg.TotalCodeGenerated)
	assert.Equal(t, report.Outcome, monitor.LastReport().Outcome)
}

func TestCapacityTriggersWhenNothingGenerated(t *testing.T) {
	st := newTestStore(t, models.CodeTypeSequential, 6)
	starter := &countingStarter{result: true}

	report, err := NewCapacityMonitor(st, NewSettingsService(st, 0), starter).Check(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Reached)
	assert.Equal(t, CapacityTriggered, report.Outcome)
	assert.Equal(t, 1, starter.Calls())
}

func TestCapacityCheckDuringRunDoesNotStartAnother(t *testing.T) {
	st := newTestStore(t, models.CodeTypeSequential, 6)
	withTotal(t, st, 100)
	seedCursor(t, st, 95)
	gen := newGenerator(st, 50, 20)
	ctx := context.Background()

	require.True(t, gen.Guard().TryAcquire(ctx))
	defer gen.Guard().Release(ctx)

	report, err := NewCapacityMonitor(st, NewSettingsService(st, 0), gen).Check(ctx)
	require.NoError(t, err)
	gen.Wait()

	assert.Equal(t, CapacityAlreadyRunning, report.Outcome)
	assert.Empty(t, st.Pool())
}

func TestCapacityConfigMissing(t *testing.T) {
	st := memstore.New()
	_, err := NewCapacityMonitor(st, NewSettingsService(st, 0), &countingStarter{}).Check(context.Background())
	require.Error(t, err)
}
