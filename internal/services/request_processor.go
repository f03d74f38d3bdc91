package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"codegen-backend/internal/codefmt"
	"codegen-backend/internal/gs1"
	"codegen-backend/internal/metrics"
	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
	"codegen-backend/internal/timeutil"

	"github.com/google/uuid"
)

var ErrPassInProgress = errors.New("request processing pass already running")

type ProcessorConfig struct {
	LotSize        int
	PassTimeout    time.Duration
	ExtensionDigit int
	Location       *time.Location
}

// PassStats summarizes one processing pass.
type PassStats struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Pending        int       `json:"pending"`
	Completed      int       `json:"completed"`
	Skipped        int       `json:"skipped"`
	UnitCodes      int64     `json:"unit_codes"`
	ContainerCodes int64     `json:"container_codes"`
	Shortfall      int64     `json:"shortfall"`
	Error          string    `json:"error,omitempty"`
}

// RequestProcessor allocates codes to pending generation requests. A pass
// runs in one transaction: every status mark and code row of the pass
// commits together or not at all.
type RequestProcessor struct {
	store     store.Store
	settings  *SettingsService
	guard     *RunGuard
	cfg       ProcessorConfig
	replenish Starter

	mu   sync.Mutex
	last *PassStats
}

func NewRequestProcessor(st store.Store, settings *SettingsService, guard *RunGuard, cfg ProcessorConfig, replenish Starter) *RequestProcessor {
	if cfg.Location == nil {
		cfg.Location = timeutil.IST
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = 1000
	}
	return &RequestProcessor{
		store:     st,
		settings:  settings,
		guard:     guard,
		cfg:       cfg,
		replenish: replenish,
	}
}

func (p *RequestProcessor) Guard() *RunGuard {
	return p.guard
}

func (p *RequestProcessor) LastStats() *PassStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	cp := *p.last
	return &cp
}

// job is a request whose every lookup succeeded; only jobs get marked
// inprogress.
type job struct {
	req     models.CodeRequest
	level   int
	product *models.Product
	batch   *models.Batch

	// unit levels
	formatted string
	table     string
	offset    int64
	entries   []models.PoolEntry

	// container levels
	sequenceStart int64
}

func (j *job) cursorKey() models.UnitCursorKey {
	return models.UnitCursorKey{
		ProductID:    j.req.ProductID,
		Level:        "level" + strconv.Itoa(j.level),
		GenerationID: j.req.GenerationID,
	}
}

// RunPass processes every pending request once. It returns
// ErrPassInProgress if another pass holds the guard.
func (p *RequestProcessor) RunPass(ctx context.Context) (*PassStats, error) {
	if !p.guard.TryAcquire(ctx) {
		metrics.PassesTotal.WithLabelValues("skipped").Inc()
		return nil, ErrPassInProgress
	}
	defer p.guard.Release(ctx)

	stats := &PassStats{ID: uuid.NewString(), StartedAt: time.Now()}
	err := p.pass(ctx, stats)
	stats.FinishedAt = time.Now()
	metrics.PassDuration.Observe(stats.FinishedAt.Sub(stats.StartedAt).Seconds())

	if err != nil {
		stats.Error = err.Error()
		metrics.PassesTotal.WithLabelValues("failed").Inc()
		log.Printf("[Pass] %s rolled back: %v", stats.ID, err)
	} else {
		metrics.PassesTotal.WithLabelValues("completed").Inc()
		metrics.RequestsTotal.WithLabelValues("completed").Add(float64(stats.Completed))
		metrics.RequestsTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
		metrics.UnitCodesAllocated.Add(float64(stats.UnitCodes))
		metrics.ContainerCodesAllocated.Add(float64(stats.ContainerCodes))
		if stats.Pending > 0 {
			log.Printf("[Pass] %s done: %d pending, %d completed, %d skipped, %d unit codes, %d sscc codes",
				stats.ID, stats.Pending, stats.Completed, stats.Skipped, stats.UnitCodes, stats.ContainerCodes)
		}
	}

	p.mu.Lock()
	p.last = stats
	p.mu.Unlock()

	if err == nil && stats.Shortfall > 0 && p.replenish != nil {
		metrics.UnitShortfall.Add(float64(stats.Shortfall))
		if p.replenish.TryStart(context.WithoutCancel(ctx)) {
			log.Printf("[Pass] Pool short by %d codes, replenishment started", stats.Shortfall)
		}
	}

	return stats, err
}

func (p *RequestProcessor) pass(ctx context.Context, stats *PassStats) error {
	snap, err := p.settings.Snapshot(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PassTimeout)
	defer cancel()

	return p.store.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		// reset in case the store retries fn
		*stats = PassStats{ID: stats.ID, StartedAt: stats.StartedAt}

		pending, err := r.Requests.ListPending(ctx, snap.ESignStatus)
		if err != nil {
			return err
		}
		stats.Pending = len(pending)

		formatter := codefmt.NewFormatter(snap.CRMURL, p.cfg.Location)
		prov := NewProvisioner(r.Schema)
		tracker := NewSummaryTracker(r.Summary)

		for _, req := range pending {
			j, err := p.resolve(ctx, r, prov, tracker, formatter, req)
			if err != nil {
				return err
			}
			if j == nil {
				stats.Skipped++
				continue
			}

			if err := r.Requests.UpdateStatus(ctx, req.ID, models.StatusInProgress); err != nil {
				return err
			}

			if models.IsContainerLevel(j.level) {
				n, err := p.allocateContainers(ctx, r, tracker, j)
				if err != nil {
					return fmt.Errorf("request %s: %w", req.ID, err)
				}
				stats.ContainerCodes += n
			} else {
				n, err := p.allocateUnits(ctx, r, tracker, j)
				if err != nil {
					return fmt.Errorf("request %s: %w", req.ID, err)
				}
				stats.UnitCodes += n
				stats.Shortfall += int64(req.NoOfCodes) - n
			}

			if err := r.Requests.UpdateStatus(ctx, req.ID, models.StatusCompleted); err != nil {
				return err
			}
			stats.Completed++
		}
		return nil
	})
}

// resolve performs every lookup a request needs before it may be marked.
// A nil job with a nil error means the request is skipped and stays
// requested; an error is a store failure that aborts the pass.
func (p *RequestProcessor) resolve(
	ctx context.Context,
	r store.Repos,
	prov *Provisioner,
	tracker *SummaryTracker,
	formatter *codefmt.Formatter,
	req models.CodeRequest,
) (*job, error) {
	skip := func(format string, args ...any) (*job, error) {
		log.Printf("[Pass] Skipping request %s: "+format, append([]any{req.ID}, args...)...)
		return nil, nil
	}

	product, err := r.Catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return skip("product %s not found", req.ProductID)
	}
	if err != nil {
		return nil, err
	}

	batch, err := r.Catalog.GetBatch(ctx, req.BatchID)
	if errors.Is(err, store.ErrNotFound) {
		return skip("batch %s not found", req.BatchID)
	}
	if err != nil {
		return nil, err
	}

	level, err := req.Level()
	if err != nil {
		return skip("%v", err)
	}
	// zero is valid; the request completes without codes
	if req.NoOfCodes < 0 {
		return skip("negative code count %d", req.NoOfCodes)
	}

	j := &job{req: req, level: level, product: product, batch: batch}

	if models.IsContainerLevel(level) {
		if _, err := gs1.PrefixBase(product.Prefix); err != nil {
			return skip("company prefix %q: %v", product.Prefix, err)
		}
		if err := prov.EnsureContainerStorage(ctx); err != nil {
			return nil, err
		}
		offset, err := tracker.ContainerOffset(ctx, product.Prefix)
		if err != nil {
			return nil, err
		}
		last := offset + int64(req.NoOfCodes)
		if _, err := gs1.SSCC(p.cfg.ExtensionDigit, product.Prefix, last); err != nil {
			return skip("serial reference range exhausted for prefix %s: %v", product.Prefix, err)
		}
		j.sequenceStart = offset + 1
		return j, nil
	}

	if _, err := store.UnitTableName(req.GenerationID, level); err != nil {
		return skip("%v", err)
	}

	if product.CountryID == "" {
		return skip("product %s has no country", product.ID)
	}
	structure, err := r.Catalog.GetCodeStructure(ctx, product.CountryID)
	if errors.Is(err, store.ErrNotFound) {
		return skip("no code structure for country %s", product.CountryID)
	}
	if err != nil {
		return nil, err
	}

	j.formatted, err = formatter.Format(structure.CodeStructure, codefmt.Context{
		Level:             level,
		RegistrationNo:    product.RegistrationNo,
		NDC:               product.NDC,
		GTIN:              product.GTIN,
		BatchNo:           batch.BatchNo,
		ManufacturingDate: batch.ManufacturingDate,
		ExpiryDate:        batch.ExpiryDate,
	})
	if err != nil {
		return skip("%v", err)
	}

	if j.table, err = prov.EnsureUnitStorage(ctx, req.GenerationID, level); err != nil {
		return nil, err
	}
	if j.offset, err = tracker.PoolOffset(ctx); err != nil {
		return nil, err
	}
	if j.entries, err = r.Pool.Fetch(ctx, j.offset, int64(req.NoOfCodes)); err != nil {
		return nil, err
	}

	// serials already in the table were written outside the cursors
	serials := make([]int64, len(j.entries))
	for i, e := range j.entries {
		serials[i] = e.ID
	}
	taken, err := r.Codes.TakenSerials(ctx, j.table, serials)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return skip("%d pool entries from offset %d already assigned in %s (first serial %d)",
			len(taken), j.offset, j.table, taken[0])
	}
	return j, nil
}

func (p *RequestProcessor) allocateUnits(ctx context.Context, r store.Repos, tracker *SummaryTracker, j *job) (int64, error) {
	codes := make([]models.LevelCode, 0, len(j.entries))
	prefix := j.req.GenerationID + strconv.Itoa(j.level)
	for _, e := range j.entries {
		uniqueID := prefix + e.Code
		codes = append(codes, models.LevelCode{
			SerialNo:    e.ID,
			ProductID:   j.product.ID,
			BatchID:     j.batch.ID,
			LocationID:  j.batch.LocationID,
			RequestID:   j.req.ID,
			UniqueCode:  uniqueID,
			CountryCode: codefmt.ExpandUnit(j.formatted, uniqueID),
		})
	}

	for _, chunk := range chunks(codes, p.cfg.LotSize) {
		if err := r.Codes.InsertLevelCodes(ctx, j.table, chunk); err != nil {
			return 0, err
		}
	}

	n := int64(len(j.entries))
	if n > 0 {
		if err := tracker.ConsumeUnit(ctx, j.cursorKey(), j.product.ProductName, n); err != nil {
			return 0, err
		}
	}
	if n < int64(j.req.NoOfCodes) {
		log.Printf("[Pass] WARNING: request %s asked for %d codes, pool had %d from offset %d",
			j.req.ID, j.req.NoOfCodes, n, j.offset)
	}
	return n, nil
}

func (p *RequestProcessor) allocateContainers(ctx context.Context, r store.Repos, tracker *SummaryTracker, j *job) (int64, error) {
	n := j.req.NoOfCodes
	codes := make([]models.ContainerCode, 0, n)
	for i := 0; i < n; i++ {
		sscc, err := gs1.SSCC(p.cfg.ExtensionDigit, j.product.Prefix, j.sequenceStart+int64(i))
		if err != nil {
			return 0, err
		}
		codes = append(codes, models.ContainerCode{
			SSCCCode:         sscc,
			PackLevel:        j.level,
			ProductID:        j.product.ID,
			BatchID:          j.batch.ID,
			ProductHistoryID: j.batch.ProductHistoryID,
			LocationID:       j.batch.LocationID,
			RequestID:        j.req.ID,
		})
	}

	for _, chunk := range chunks(codes, p.cfg.LotSize) {
		if err := r.Codes.InsertContainerCodes(ctx, chunk); err != nil {
			return 0, err
		}
	}

	if err := tracker.ConsumeContainer(ctx, j.product.Prefix, int64(n)); err != nil {
		return 0, err
	}
	return int64(n), nil
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
