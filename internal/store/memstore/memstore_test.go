package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		n, err := r.Pool.InsertSkipDuplicates(ctx, []string{"A", "B", "A"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		return r.Schema.CreateUnitCodeTable(ctx, "gen10_codes")
	})
	require.NoError(t, err)

	assert.Len(t, s.Pool(), 2)
	assert.Equal(t, []string{"gen10_codes"}, s.Tables())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	s.AddRequest(models.CodeRequest{ID: "r1"})
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		require.NoError(t, r.Requests.UpdateStatus(ctx, "r1", models.StatusInProgress))
		_, err := r.Pool.InsertSkipDuplicates(ctx, []string{"A"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	req, ok := s.Request("r1")
	require.True(t, ok)
	assert.Equal(t, models.StatusRequested, req.Status)
	assert.Empty(t, s.Pool())
}

func TestWithinTxRollsBackOnCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		_, err := r.Pool.InsertSkipDuplicates(ctx, []string{"A"})
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Pool())
}

func TestUpdateStatusRejectsRegression(t *testing.T) {
	s := New()
	s.AddRequest(models.CodeRequest{ID: "r1", Status: models.StatusCompleted})

	err := s.Repos().Requests.UpdateStatus(context.Background(), "r1", models.StatusInProgress)
	assert.Error(t, err)

	err = s.Repos().Requests.UpdateStatus(context.Background(), "missing", models.StatusInProgress)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPendingOrdersAndFilters(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.AddRequest(models.CodeRequest{ID: "late", CreatedAt: base.Add(time.Hour), ESignStatus: models.ESignApproved})
	s.AddRequest(models.CodeRequest{ID: "early", CreatedAt: base, ESignStatus: "pending"})
	s.AddRequest(models.CodeRequest{ID: "done", CreatedAt: base, Status: models.StatusCompleted})

	all, err := s.Repos().Requests.ListPending(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "early", all[0].ID)
	assert.Equal(t, "late", all[1].ID)

	approved, err := s.Repos().Requests.ListPending(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "late", approved[0].ID)
}

func TestPoolFetchWindow(t *testing.T) {
	s := New()
	s.SeedPool("A", "B", "C", "D")
	ctx := context.Background()

	entries, err := s.Repos().Pool.Fetch(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Code)
	assert.Equal(t, int64(2), entries[0].ID)

	entries, err = s.Repos().Pool.Fetch(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = s.Repos().Pool.Fetch(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInsertLevelCodesEnforcesSerialUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := s.Repos()

	err := r.Codes.InsertLevelCodes(ctx, "missing", []models.LevelCode{{SerialNo: 1}})
	assert.Error(t, err)

	require.NoError(t, r.Schema.CreateUnitCodeTable(ctx, "g0_codes"))
	require.NoError(t, r.Codes.InsertLevelCodes(ctx, "g0_codes", []models.LevelCode{{SerialNo: 1}}))
	assert.Error(t, r.Codes.InsertLevelCodes(ctx, "g0_codes", []models.LevelCode{{SerialNo: 1}}))
}

func TestTakenSerials(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := s.Repos()

	_, err := r.Codes.TakenSerials(ctx, "missing", []int64{1})
	assert.Error(t, err)

	s.SeedLevelCodes("g0_codes", models.LevelCode{SerialNo: 2}, models.LevelCode{SerialNo: 5})
	taken, err := r.Codes.TakenSerials(ctx, "g0_codes", []int64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 5}, taken)

	taken, err = r.Codes.TakenSerials(ctx, "g0_codes", []int64{7})
	require.NoError(t, err)
	assert.Empty(t, taken)
}

func TestUnitConsumedTotal(t *testing.T) {
	s := New()
	ctx := context.Background()
	summary := s.Repos().Summary

	total, err := summary.UnitConsumedTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, summary.CreateUnitCursor(ctx, &models.UnitCursor{ProductID: "a", Level: "level0", GenerationID: "G", LastGenerated: 4}))
	require.NoError(t, summary.CreateUnitCursor(ctx, &models.UnitCursor{ProductID: "b", Level: "level1", GenerationID: "G", LastGenerated: 6}))

	total, err = summary.UnitConsumedTotal(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
}

func TestFaultInjection(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.SetFault(func(op string) error {
		if op == OpPoolCount {
			return boom
		}
		return nil
	})

	_, err := s.Repos().Pool.Count(context.Background())
	assert.ErrorIs(t, err, boom)

	s.SetFault(nil)
	_, err = s.Repos().Pool.Count(context.Background())
	assert.NoError(t, err)
}
