package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codegen-backend/internal/handlers"
	"codegen-backend/internal/health"
	"codegen-backend/internal/models"
	"codegen-backend/internal/services"
	"codegen-backend/internal/store/memstore"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWorker struct {
	store     *memstore.Store
	processor *services.RequestProcessor
	pool      *services.PoolGenerator
	router    *mux.Router
}

func newTestWorker(t *testing.T) *testWorker {
	t.Helper()
	st := memstore.New()
	st.SetSuperConfig(models.SuperConfig{ID: "cfg", CodeLength: 6, CodesType: models.CodeTypeSequential})

	settings := services.NewSettingsService(st, 0)
	pool := services.NewPoolGenerator(st, settings, services.NewRunGuard("pool", nil), services.PoolConfig{
		TotalCodes: 10, LotSize: 5, MaxStalledRetries: 10,
	})
	processor := services.NewRequestProcessor(st, settings, services.NewRunGuard("pass", nil), services.ProcessorConfig{
		LotSize: 5, PassTimeout: time.Minute,
	}, pool)
	monitor := services.NewCapacityMonitor(st, settings, pool)

	router := NewRouter(
		handlers.NewHealthHandler(health.NewHealthChecker(nil, false)),
		handlers.NewCodegenHandler(processor, pool, monitor),
	)
	return &testWorker{store: st, processor: processor, pool: pool, router: router}
}

func (w *testWorker) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthRoutes(t *testing.T) {
	w := newTestWorker(t)

	rec := w.do(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = w.do(http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = w.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/api/nope").Code)
}

func TestMethodMismatchIsNotAllowed(t *testing.T) {
	w := newTestWorker(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/pass"},
		{http.MethodGet, "/api/pool/check"},
		{http.MethodPost, "/api/status"},
		{http.MethodPost, "/health"},
	} {
		rec := w.do(tc.method, tc.path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.method+" "+tc.path)
	}

	// a rejected method never runs the handler
	assert.Nil(t, w.processor.LastStats())
}

func TestTriggerPass(t *testing.T) {
	w := newTestWorker(t)

	rec := w.do(http.MethodPost, "/api/pass")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats services.PassStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.NotEmpty(t, stats.ID)
	assert.Zero(t, stats.Pending)

	ctx := context.Background()
	require.True(t, w.processor.Guard().TryAcquire(ctx))
	defer w.processor.Guard().Release(ctx)
	assert.Equal(t, http.StatusConflict, w.do(http.MethodPost, "/api/pass").Code)
}

func TestCheckPoolAndStatus(t *testing.T) {
	w := newTestWorker(t)

	rec := w.do(http.MethodPost, "/api/pool/check")
	require.Equal(t, http.StatusAccepted, rec.Code)
	w.pool.Wait()
	assert.Len(t, w.store.Pool(), 10)

	rec = w.do(http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status handlers.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.PoolRunning)
	require.NotNil(t, status.LastPoolRun)
	assert.EqualValues(t, 10, status.LastPoolRun.Inserted)
	require.NotNil(t, status.LastCapacity)
	assert.Equal(t, services.CapacityTriggered, status.LastCapacity.Outcome)
	assert.Nil(t, status.LastPass)
}
