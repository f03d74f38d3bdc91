package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
	"codegen-backend/internal/store/memstore"
)

const (
	testConfigID       = "cfg-1"
	testProductID      = "6f1c2a9e-0d4b-4c47-9a51-3f0e8b2d7c10"
	testOtherProductID = "9d3e5f71-2c8a-4b06-a4e2-7b1f0c9d8e23"
	testBatchID        = "2b7e8c41-5a3d-4f6e-8c29-91d0a4b6e3f2"
	testCountryID      = "c0a8012e-7f3b-4d2a-b5e6-0e9d8c7b6a51"
	testPrefix         = "8901234"
	testCRMURL         = "https://crm.example.com"
)

func newTestStore(t *testing.T, codesType models.CodeType, codeLength int) *memstore.Store {
	t.Helper()
	st := memstore.New()
	st.SetSuperConfig(models.SuperConfig{
		ID:         testConfigID,
		CodeLength: codeLength,
		CodesType:  codesType,
		CRMURL:     testCRMURL,
	})
	st.AddProduct(models.Product{
		ID:             testProductID,
		ProductName:    "Paracetamol 500mg",
		Prefix:         testPrefix,
		CountryID:      testCountryID,
		NDC:            "12345-678",
		GTIN:           "890123456789",
		RegistrationNo: "REG-42",
	})
	st.AddBatch(models.Batch{
		ID:                testBatchID,
		LocationID:        "loc-1",
		ProductHistoryID:  "ph-1",
		BatchNo:           "B001",
		ManufacturingDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
	})
	st.AddCodeStructure(models.CountryCodeStructure{
		CountryID:     testCountryID,
		CodeStructure: "CRMURL/uniqueCode",
	})
	return st
}

func unitRequest(id, generationID string, level string, n int, created time.Time) models.CodeRequest {
	return models.CodeRequest{
		ID:                 id,
		ProductID:          testProductID,
		BatchID:            testBatchID,
		PackagingHierarchy: level,
		NoOfCodes:          n,
		GenerationID:       generationID,
		CreatedAt:          created,
	}
}

// lotRecorder records the size of every pool insert.
type lotRecorder struct {
	store.PoolStore
	mu    *sync.Mutex
	sizes *[]int
}

func (l lotRecorder) InsertSkipDuplicates(ctx context.Context, codes []string) (int64, error) {
	l.mu.Lock()
	*l.sizes = append(*l.sizes, len(codes))
	l.mu.Unlock()
	return l.PoolStore.InsertSkipDuplicates(ctx, codes)
}

type recordingStore struct {
	*memstore.Store
	mu    sync.Mutex
	sizes []int
}

func (s *recordingStore) Repos() store.Repos {
	r := s.Store.Repos()
	r.Pool = lotRecorder{PoolStore: r.Pool, mu: &s.mu, sizes: &s.sizes}
	return r
}

func (s *recordingStore) Sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.sizes...)
}

// countingStarter stands in for the pool generator.
type countingStarter struct {
	mu     sync.Mutex
	calls  int
	result bool
}

func (c *countingStarter) TryStart(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.result
}

func (c *countingStarter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// failOn returns a fault injector that fails the nth call (1-based) of op.
func failOn(op string, nth int, err error) memstore.FaultFunc {
	var mu sync.Mutex
	seen := 0
	return func(got string) error {
		if got != op {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		seen++
		if seen == nth {
			return err
		}
		return nil
	}
}
