// Package memstore is an in-memory, transactional implementation of
// store.Store. Transactions run against a clone of the state that replaces
// the live state only on commit, so a failed transaction leaves nothing
// behind. It backs the "memory" storage driver and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"

	"github.com/google/uuid"
)

// Operation names passed to a FaultFunc.
const (
	OpListPending          = "ListPending"
	OpUpdateStatus         = "UpdateStatus"
	OpGetProduct           = "GetProduct"
	OpGetBatch             = "GetBatch"
	OpGetCodeStructure     = "GetCodeStructure"
	OpPoolCount            = "PoolCount"
	OpInsertSkipDuplicates = "InsertSkipDuplicates"
	OpPoolFetch            = "PoolFetch"
	OpTableExists          = "TableExists"
	OpCreateTable          = "CreateTable"
	OpInsertLevelCodes     = "InsertLevelCodes"
	OpInsertContainerCodes = "InsertContainerCodes"
	OpTakenSerials         = "TakenSerials"
	OpUnitCursor           = "UnitCursor"
	OpContainerCursor      = "ContainerCursor"
	OpGetSuperConfig       = "GetSuperConfig"
	OpAddTotalGenerated    = "AddTotalCodeGenerated"
)

// FaultFunc is consulted before every operation; a non-nil error is
// returned to the caller instead of performing the operation.
type FaultFunc func(op string) error

type requestRow struct {
	req     models.CodeRequest
	seq     int
	history []models.RequestStatus
}

type state struct {
	requests   map[string]*requestRow
	requestSeq int

	products   map[string]models.Product
	batches    map[string]models.Batch
	structures map[string]models.CountryCodeStructure

	pool      []models.PoolEntry
	poolCodes map[string]struct{}

	tables         map[string]struct{}
	levelCodes     map[string][]models.LevelCode
	containerCodes []models.ContainerCode

	unitCursors      map[string]*models.UnitCursor
	containerCursors map[string]*models.ContainerCursor

	config *models.SuperConfig
}

func newState() *state {
	return &state{
		requests:         make(map[string]*requestRow),
		products:         make(map[string]models.Product),
		batches:          make(map[string]models.Batch),
		structures:       make(map[string]models.CountryCodeStructure),
		poolCodes:        make(map[string]struct{}),
		tables:           make(map[string]struct{}),
		levelCodes:       make(map[string][]models.LevelCode),
		unitCursors:      make(map[string]*models.UnitCursor),
		containerCursors: make(map[string]*models.ContainerCursor),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.requestSeq = s.requestSeq
	for id, row := range s.requests {
		cp := *row
		cp.history = append([]models.RequestStatus(nil), row.history...)
		c.requests[id] = &cp
	}
	for id, p := range s.products {
		c.products[id] = p
	}
	for id, b := range s.batches {
		c.batches[id] = b
	}
	for id, cs := range s.structures {
		c.structures[id] = cs
	}
	c.pool = append([]models.PoolEntry(nil), s.pool...)
	for code := range s.poolCodes {
		c.poolCodes[code] = struct{}{}
	}
	for name := range s.tables {
		c.tables[name] = struct{}{}
	}
	for name, rows := range s.levelCodes {
		c.levelCodes[name] = append([]models.LevelCode(nil), rows...)
	}
	c.containerCodes = append([]models.ContainerCode(nil), s.containerCodes...)
	for id, cur := range s.unitCursors {
		cp := *cur
		c.unitCursors[id] = &cp
	}
	for id, cur := range s.containerCursors {
		cp := *cur
		c.containerCursors[id] = &cp
	}
	if s.config != nil {
		cfg := *s.config
		c.config = &cfg
	}
	return c
}

// Store is safe for concurrent use. A running transaction holds the store
// lock until it commits or rolls back.
type Store struct {
	mu sync.Mutex
	st *state

	faultMu sync.Mutex
	fault   FaultFunc

	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// SetFault installs (or, with nil, removes) a fault injector.
func (s *Store) SetFault(f FaultFunc) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.fault = f
}

func (s *Store) injected(op string) error {
	s.faultMu.Lock()
	f := s.fault
	s.faultMu.Unlock()
	if f == nil {
		return nil
	}
	return f(op)
}

func (s *Store) Repos() store.Repos {
	return (&view{store: s}).repos()
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	v := &view{store: s, tx: tx}
	if err := fn(ctx, v.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	s.st = tx
	return nil
}

// view binds the store contracts either to the live state (tx == nil) or
// to a transaction's private clone.
type view struct {
	store *Store
	tx    *state
}

func (v *view) repos() store.Repos {
	return store.Repos{
		Requests: requestRepo{v},
		Catalog:  catalogRepo{v},
		Pool:     poolRepo{v},
		Schema:   schemaRepo{v},
		Codes:    codeRepo{v},
		Summary:  summaryRepo{v},
		Settings: settingRepo{v},
	}
}

func (v *view) do(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx == nil {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	if err := v.store.injected(op); err != nil {
		return err
	}
	st := v.tx
	if st == nil {
		st = v.store.st
	}
	return fn(st)
}

type requestRepo struct{ v *view }

func (r requestRepo) ListPending(ctx context.Context, requireESign bool) ([]models.CodeRequest, error) {
	var out []models.CodeRequest
	err := r.v.do(ctx, OpListPending, func(st *state) error {
		rows := make([]*requestRow, 0, len(st.requests))
		for _, row := range st.requests {
			if row.req.Status != models.StatusRequested {
				continue
			}
			if requireESign && row.req.ESignStatus != models.ESignApproved {
				continue
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].req.CreatedAt.Equal(rows[j].req.CreatedAt) {
				return rows[i].req.CreatedAt.Before(rows[j].req.CreatedAt)
			}
			return rows[i].seq < rows[j].seq
		})
		for _, row := range rows {
			out = append(out, row.req)
		}
		return nil
	})
	return out, err
}

func (r requestRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return r.v.do(ctx, OpUpdateStatus, func(st *state) error {
		row, ok := st.requests[id]
		if !ok {
			return fmt.Errorf("code request %s: %w", id, store.ErrNotFound)
		}
		if !row.req.Status.CanAdvanceTo(status) {
			return fmt.Errorf("code request %s: invalid status transition %s -> %s", id, row.req.Status, status)
		}
		row.req.Status = status
		row.history = append(row.history, status)
		return nil
	})
}

type catalogRepo struct{ v *view }

func (r catalogRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var out *models.Product
	err := r.v.do(ctx, OpGetProduct, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r catalogRepo) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var out *models.Batch
	err := r.v.do(ctx, OpGetBatch, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r catalogRepo) GetCodeStructure(ctx context.Context, countryID string) (*models.CountryCodeStructure, error) {
	var out *models.CountryCodeStructure
	err := r.v.do(ctx, OpGetCodeStructure, func(st *state) error {
		cs, ok := st.structures[countryID]
		if !ok {
			return store.ErrNotFound
		}
		out = &cs
		return nil
	})
	return out, err
}

type poolRepo struct{ v *view }

func (r poolRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.v.do(ctx, OpPoolCount, func(st *state) error {
		n = int64(len(st.pool))
		return nil
	})
	return n, err
}

func (r poolRepo) InsertSkipDuplicates(ctx context.Context, codes []string) (int64, error) {
	var inserted int64
	err := r.v.do(ctx, OpInsertSkipDuplicates, func(st *state) error {
		now := r.v.store.now()
		for _, code := range codes {
			if _, dup := st.poolCodes[code]; dup {
				continue
			}
			st.poolCodes[code] = struct{}{}
			st.pool = append(st.pool, models.PoolEntry{
				ID:        int64(len(st.pool)) + 1,
				Code:      code,
				CreatedAt: now,
			})
			inserted++
		}
		return nil
	})
	return inserted, err
}

func (r poolRepo) Fetch(ctx context.Context, offset, limit int64) ([]models.PoolEntry, error) {
	var out []models.PoolEntry
	err := r.v.do(ctx, OpPoolFetch, func(st *state) error {
		total := int64(len(st.pool))
		if offset >= total || limit <= 0 {
			return nil
		}
		end := offset + limit
		if end > total {
			end = total
		}
		out = append(out, st.pool[offset:end]...)
		return nil
	})
	return out, err
}

type schemaRepo struct{ v *view }

func (r schemaRepo) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.v.do(ctx, OpTableExists, func(st *state) error {
		_, exists = st.tables[name]
		return nil
	})
	return exists, err
}

func (r schemaRepo) create(ctx context.Context, name string) error {
	return r.v.do(ctx, OpCreateTable, func(st *state) error {
		st.tables[name] = struct{}{}
		return nil
	})
}

func (r schemaRepo) CreateUnitCodeTable(ctx context.Context, name string) error {
	return r.create(ctx, name)
}

func (r schemaRepo) CreateContainerCodeTable(ctx context.Context) error {
	return r.create(ctx, store.ContainerCodesTable)
}

func (r schemaRepo) CreateContainerSummaryTable(ctx context.Context) error {
	return r.create(ctx, store.ContainerSummaryTable)
}

type codeRepo struct{ v *view }

func (r codeRepo) InsertLevelCodes(ctx context.Context, table string, codes []models.LevelCode) error {
	return r.v.do(ctx, OpInsertLevelCodes, func(st *state) error {
		if _, ok := st.tables[table]; !ok {
			return fmt.Errorf("relation %q does not exist", table)
		}
		used := make(map[int64]struct{}, len(st.levelCodes[table])+len(codes))
		for _, c := range st.levelCodes[table] {
			used[c.SerialNo] = struct{}{}
		}
		for _, c := range codes {
			if _, dup := used[c.SerialNo]; dup {
				return fmt.Errorf("duplicate serial_no %d in %s", c.SerialNo, table)
			}
			used[c.SerialNo] = struct{}{}
		}
		st.levelCodes[table] = append(st.levelCodes[table], codes...)
		return nil
	})
}

func (r codeRepo) TakenSerials(ctx context.Context, table string, serials []int64) ([]int64, error) {
	var taken []int64
	err := r.v.do(ctx, OpTakenSerials, func(st *state) error {
		if _, ok := st.tables[table]; !ok {
			return fmt.Errorf("relation %q does not exist", table)
		}
		want := make(map[int64]struct{}, len(serials))
		for _, s := range serials {
			want[s] = struct{}{}
		}
		for _, c := range st.levelCodes[table] {
			if _, ok := want[c.SerialNo]; ok {
				taken = append(taken, c.SerialNo)
			}
		}
		return nil
	})
	return taken, err
}

func (r codeRepo) InsertContainerCodes(ctx context.Context, codes []models.ContainerCode) error {
	return r.v.do(ctx, OpInsertContainerCodes, func(st *state) error {
		if _, ok := st.tables[store.ContainerCodesTable]; !ok {
			return fmt.Errorf("relation %q does not exist", store.ContainerCodesTable)
		}
		st.containerCodes = append(st.containerCodes, codes...)
		return nil
	})
}

type summaryRepo struct{ v *view }

func (r summaryRepo) GetUnitCursor(ctx context.Context, key models.UnitCursorKey) (*models.UnitCursor, error) {
	var out *models.UnitCursor
	err := r.v.do(ctx, OpUnitCursor, func(st *state) error {
		for _, cur := range st.unitCursors {
			if cur.Key() == key {
				cp := *cur
				out = &cp
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r summaryRepo) CreateUnitCursor(ctx context.Context, cursor *models.UnitCursor) error {
	return r.v.do(ctx, OpUnitCursor, func(st *state) error {
		cp := *cursor
		cp.ID = uuid.NewString()
		cp.UpdatedAt = r.v.store.now()
		st.unitCursors[cp.ID] = &cp
		cursor.ID = cp.ID
		return nil
	})
}

func (r summaryRepo) AddToUnitCursor(ctx context.Context, id string, n int64) error {
	return r.v.do(ctx, OpUnitCursor, func(st *state) error {
		cur, ok := st.unitCursors[id]
		if !ok {
			return fmt.Errorf("unit cursor %s: %w", id, store.ErrNotFound)
		}
		cur.LastGenerated += n
		cur.UpdatedAt = r.v.store.now()
		return nil
	})
}

func (r summaryRepo) AnyUnitCursorReached(ctx context.Context, threshold float64) (bool, error) {
	var reached bool
	err := r.v.do(ctx, OpUnitCursor, func(st *state) error {
		for _, cur := range st.unitCursors {
			if float64(cur.LastGenerated) >= threshold {
				reached = true
				return nil
			}
		}
		return nil
	})
	return reached, err
}

func (r summaryRepo) UnitConsumedTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.v.do(ctx, OpUnitCursor, func(st *state) error {
		for _, cur := range st.unitCursors {
			total += cur.LastGenerated
		}
		return nil
	})
	return total, err
}

func (r summaryRepo) GetContainerCursor(ctx context.Context, prefix string) (*models.ContainerCursor, error) {
	var out *models.ContainerCursor
	err := r.v.do(ctx, OpContainerCursor, func(st *state) error {
		if _, ok := st.tables[store.ContainerSummaryTable]; !ok {
			return fmt.Errorf("relation %q does not exist", store.ContainerSummaryTable)
		}
		for _, cur := range st.containerCursors {
			if cur.CompanyPrefix == prefix {
				cp := *cur
				out = &cp
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r summaryRepo) CreateContainerCursor(ctx context.Context, cursor *models.ContainerCursor) error {
	return r.v.do(ctx, OpContainerCursor, func(st *state) error {
		cp := *cursor
		cp.ID = uuid.NewString()
		cp.UpdatedAt = r.v.store.now()
		st.containerCursors[cp.ID] = &cp
		cursor.ID = cp.ID
		return nil
	})
}

func (r summaryRepo) AddToContainerCursor(ctx context.Context, id string, n int64) error {
	return r.v.do(ctx, OpContainerCursor, func(st *state) error {
		cur, ok := st.containerCursors[id]
		if !ok {
			return fmt.Errorf("container cursor %s: %w", id, store.ErrNotFound)
		}
		cur.LastGenerated += n
		cur.UpdatedAt = r.v.store.now()
		return nil
	})
}

type settingRepo struct{ v *view }

func (r settingRepo) GetSuperConfig(ctx context.Context) (*models.SuperConfig, error) {
	var out *models.SuperConfig
	err := r.v.do(ctx, OpGetSuperConfig, func(st *state) error {
		if st.config == nil {
			return store.ErrNotFound
		}
		cfg := *st.config
		out = &cfg
		return nil
	})
	return out, err
}

func (r settingRepo) AddTotalCodeGenerated(ctx context.Context, id string, n int64) error {
	return r.v.do(ctx, OpAddTotalGenerated, func(st *state) error {
		if st.config == nil || st.config.ID != id {
			return fmt.Errorf("super configuration %s: %w", id, store.ErrNotFound)
		}
		st.config.TotalCodeGenerated += n
		return nil
	})
}
