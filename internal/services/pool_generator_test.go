package services

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
	"codegen-backend/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(st store.Store, total int64, lot int) *PoolGenerator {
	settings := NewSettingsService(st, 0)
	return NewPoolGenerator(st, settings, NewRunGuard("pool", nil), PoolConfig{
		TotalCodes:        total,
		LotSize:           lot,
		MaxStalledRetries: 200,
	}).WithRand(rand.New(rand.NewSource(7)))
}

func TestGenerateSequentialLots(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 6)
	rec := &recordingStore{Store: mem}
	gen := newGenerator(rec, 2500, 1000)

	stats, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 1000, 500}, rec.Sizes())
	assert.Equal(t, 3, stats.Lots)
	assert.EqualValues(t, 2500, stats.Inserted)
	assert.Zero(t, stats.Collisions)

	pool := mem.Pool()
	require.Len(t, pool, 2500)
	for k, e := range pool {
		v, err := strconv.ParseInt(e.Code, 36, 64)
		require.NoError(t, err)
		assert.EqualValues(t, k, v, "entry %d", k+1)
		assert.Len(t, e.Code, 6)
	}

	cfg, _ := mem.SuperConfig()
	assert.EqualValues(t, 2500, cfg.TotalCodeGenerated)
	assert.False(t, gen.Guard().Active())
}

func TestGenerateSequentialContinuesFromPoolSize(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 4)
	mem.SeedPool("ZZZA", "ZZZB")
	gen := newGenerator(mem, 3, 10)

	_, err := gen.Generate(context.Background())
	require.NoError(t, err)

	pool := mem.Pool()
	require.Len(t, pool, 5)
	assert.Equal(t, []string{"0002", "0003", "0004"}, []string{pool[2].Code, pool[3].Code, pool[4].Code})
}

func TestGenerateSequentialSkipsExistingCodes(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 6)
	mem.SeedPool("000001")
	gen := newGenerator(mem, 5, 5)

	stats, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 5, stats.Inserted)
	assert.EqualValues(t, 1, stats.Collisions)
	assert.Len(t, mem.Pool(), 6)
}

func TestGenerateRandomRegeneratesCollisions(t *testing.T) {
	// a one-symbol code space forces duplicates
	mem := newTestStore(t, models.CodeTypeRandom, 1)
	gen := newGenerator(mem, 36, 10)

	stats, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 36, stats.Inserted)
	assert.Positive(t, stats.Collisions)

	seen := make(map[string]bool)
	for _, e := range mem.Pool() {
		assert.False(t, seen[e.Code], "duplicate %s", e.Code)
		seen[e.Code] = true
		assert.True(t, strings.Contains(CodeAlphabet, e.Code))
	}
	assert.Len(t, seen, 36)
}

func TestGenerateRandomSaturates(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeRandom, 1)
	gen := newGenerator(mem, 40, 40)

	_, err := gen.Generate(context.Background())
	require.ErrorIs(t, err, ErrPoolSaturated)

	assert.Len(t, mem.Pool(), 36)
	cfg, _ := mem.SuperConfig()
	assert.Zero(t, cfg.TotalCodeGenerated)
	assert.False(t, gen.Guard().Active())
}

func TestGenerateSequentialExhausted(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 1)
	gen := newGenerator(mem, 37, 100)

	_, err := gen.Generate(context.Background())
	require.ErrorIs(t, err, ErrSequenceExhausted)
	assert.Empty(t, mem.Pool())
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	t.Run("codes type", func(t *testing.T) {
		mem := newTestStore(t, models.CodeType("hex"), 6)
		_, err := newGenerator(mem, 10, 10).Generate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "codes_type")
	})
	t.Run("code length", func(t *testing.T) {
		mem := newTestStore(t, models.CodeTypeRandom, 0)
		_, err := newGenerator(mem, 10, 10).Generate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code_length")
	})
}

func TestGenerateStoreFailureLeavesPartialPool(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 6)
	boom := errors.New("connection reset")
	mem.SetFault(failOn(memstore.OpInsertSkipDuplicates, 2, boom))
	gen := newGenerator(mem, 2500, 1000)

	stats, err := gen.Generate(context.Background())
	require.ErrorIs(t, err, boom)

	assert.Len(t, mem.Pool(), 1000)
	assert.EqualValues(t, 1000, stats.Inserted)
	assert.NotEmpty(t, stats.Error)
	cfg, _ := mem.SuperConfig()
	assert.Zero(t, cfg.TotalCodeGenerated)
	assert.False(t, gen.Guard().Active())
	assert.Equal(t, stats.Error, gen.LastStats().Error)
}

func TestGenerateWhileRunning(t *testing.T) {
	mem := newTestStore(t, models.CodeTypeSequential, 6)
	gen := newGenerator(mem, 10, 10)
	ctx := context.Background()

	require.True(t, gen.Guard().TryAcquire(ctx))
	_, err := gen.Generate(ctx)
	require.ErrorIs(t, err, ErrPoolRunInProgress)
	assert.False(t, gen.TryStart(ctx))
	gen.Guard().Release(ctx)

	require.True(t, gen.TryStart(ctx))
	gen.Wait()
	assert.Len(t, mem.Pool(), 10)
	assert.False(t, gen.Guard().Active())
}

func TestSequentialCode(t *testing.T) {
	code, err := SequentialCode(0, 4)
	require.NoError(t, err)
	assert.Equal(t, "0000", code)

	code, err = SequentialCode(35, 4)
	require.NoError(t, err)
	assert.Equal(t, "000Z", code)

	code, err = SequentialCode(36*36, 4)
	require.NoError(t, err)
	assert.Equal(t, "0100", code)

	_, err = SequentialCode(36, 1)
	require.ErrorIs(t, err, ErrSequenceExhausted)
}
