package memstore

import (
	"sort"

	"codegen-backend/internal/models"
)

// Seeding and inspection helpers. They act on the committed state.

func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

func (s *Store) AddBatch(b models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.batches[b.ID] = b
}

func (s *Store) AddCodeStructure(cs models.CountryCodeStructure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.structures[cs.CountryID] = cs
}

// AddRequest stores a request; an empty status defaults to requested.
func (s *Store) AddRequest(r models.CodeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Status == "" {
		r.Status = models.StatusRequested
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.st.requestSeq++
	s.st.requests[r.ID] = &requestRow{
		req:     r,
		seq:     s.st.requestSeq,
		history: []models.RequestStatus{r.Status},
	}
}

func (s *Store) SetSuperConfig(cfg models.SuperConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.config = &cfg
}

// SeedPool appends codes to the pool without duplicate checks.
func (s *Store) SeedPool(codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range codes {
		s.st.poolCodes[code] = struct{}{}
		s.st.pool = append(s.st.pool, models.PoolEntry{
			ID:        int64(len(s.st.pool)) + 1,
			Code:      code,
			CreatedAt: s.now(),
		})
	}
}

// SeedLevelCodes creates table if needed and appends rows as already
// allocated codes.
func (s *Store) SeedLevelCodes(table string, codes ...models.LevelCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.tables[table] = struct{}{}
	s.st.levelCodes[table] = append(s.st.levelCodes[table], codes...)
}

func (s *Store) Request(id string) (models.CodeRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.requests[id]
	if !ok {
		return models.CodeRequest{}, false
	}
	return row.req, true
}

// StatusHistory returns every committed status of a request, oldest first.
func (s *Store) StatusHistory(id string) []models.RequestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.requests[id]
	if !ok {
		return nil
	}
	return append([]models.RequestStatus(nil), row.history...)
}

func (s *Store) Pool() []models.PoolEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PoolEntry(nil), s.st.pool...)
}

func (s *Store) LevelCodes(table string) []models.LevelCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LevelCode(nil), s.st.levelCodes[table]...)
}

func (s *Store) ContainerCodes() []models.ContainerCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ContainerCode(nil), s.st.containerCodes...)
}

// Tables lists created tables in name order.
func (s *Store) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.st.tables))
	for name := range s.st.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) UnitCursor(key models.UnitCursorKey) (models.UnitCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.st.unitCursors {
		if cur.Key() == key {
			return *cur, true
		}
	}
	return models.UnitCursor{}, false
}

func (s *Store) ContainerCursor(prefix string) (models.ContainerCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.st.containerCursors {
		if cur.CompanyPrefix == prefix {
			return *cur, true
		}
	}
	return models.ContainerCursor{}, false
}

func (s *Store) SuperConfig() (models.SuperConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.config == nil {
		return models.SuperConfig{}, false
	}
	return *s.st.config, true
}
