package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"codegen-backend/internal/metrics"
	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

// CodeAlphabet is the symbol set of random pool codes.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrPoolRunInProgress = errors.New("pool generation already running")
	ErrPoolSaturated     = errors.New("pool code space saturated")
	ErrSequenceExhausted = errors.New("sequential code no longer fits code length")
)

type PoolConfig struct {
	TotalCodes        int64
	LotSize           int
	MaxStalledRetries int
}

// PoolStats summarizes one pool run.
type PoolStats struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Mode       string    `json:"mode"`
	Target     int64     `json:"target"`
	Inserted   int64     `json:"inserted"`
	Collisions int64     `json:"collisions"`
	Lots       int       `json:"lots"`
	Error      string    `json:"error,omitempty"`
}

// PoolGenerator fills the master code pool by cfg.TotalCodes entries, one
// lot at a time, regenerating whatever a lot lost to duplicates before
// moving on.
type PoolGenerator struct {
	store    store.Store
	settings *SettingsService
	guard    *RunGuard
	cfg      PoolConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	wg sync.WaitGroup

	// next sequential value to try; only touched by the run holding the guard
	seqNext int64

	mu   sync.Mutex
	last *PoolStats
}

func NewPoolGenerator(st store.Store, settings *SettingsService, guard *RunGuard, cfg PoolConfig) *PoolGenerator {
	return &PoolGenerator{
		store:    st,
		settings: settings,
		guard:    guard,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the random source, for reproducible runs.
func (g *PoolGenerator) WithRand(r *rand.Rand) *PoolGenerator {
	g.rngMu.Lock()
	g.rng = r
	g.rngMu.Unlock()
	return g
}

func (g *PoolGenerator) Guard() *RunGuard {
	return g.guard
}

// Generate runs synchronously. It returns ErrPoolRunInProgress when a run
// is already active.
func (g *PoolGenerator) Generate(ctx context.Context) (*PoolStats, error) {
	if !g.guard.TryAcquire(ctx) {
		metrics.PoolRunsTotal.WithLabelValues("skipped").Inc()
		return nil, ErrPoolRunInProgress
	}
	defer g.guard.Release(ctx)
	return g.run(ctx)
}

// TryStart acquires the guard and runs in the background. It reports
// whether a run was started; Wait blocks until started runs finish.
func (g *PoolGenerator) TryStart(ctx context.Context) bool {
	if !g.guard.TryAcquire(ctx) {
		metrics.PoolRunsTotal.WithLabelValues("skipped").Inc()
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.guard.Release(ctx)
		if _, err := g.run(ctx); err != nil {
			log.Printf("[Pool] Background run failed: %v", err)
		}
	}()
	return true
}

func (g *PoolGenerator) Wait() {
	g.wg.Wait()
}

// LastStats returns the stats of the most recent finished run, or nil.
func (g *PoolGenerator) LastStats() *PoolStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return nil
	}
	cp := *g.last
	return &cp
}

func (g *PoolGenerator) run(ctx context.Context) (*PoolStats, error) {
	stats := &PoolStats{StartedAt: time.Now(), Target: g.cfg.TotalCodes}
	err := g.fill(ctx, stats)
	stats.FinishedAt = time.Now()

	if err != nil {
		stats.Error = err.Error()
		metrics.PoolRunsTotal.WithLabelValues("failed").Inc()
		log.Printf("[Pool] Run abandoned after %d/%d codes: %v", stats.Inserted, stats.Target, err)
	} else {
		metrics.PoolRunsTotal.WithLabelValues("completed").Inc()
		log.Printf("[Pool] Generated %d codes in %d lots (%d collisions) in %s",
			stats.Inserted, stats.Lots, stats.Collisions, stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond))
	}

	g.mu.Lock()
	g.last = stats
	g.mu.Unlock()
	return stats, err
}

func (g *PoolGenerator) fill(ctx context.Context, stats *PoolStats) error {
	if g.cfg.TotalCodes <= 0 || g.cfg.LotSize <= 0 {
		return fmt.Errorf("invalid pool size %d or lot size %d", g.cfg.TotalCodes, g.cfg.LotSize)
	}

	snap, err := g.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !snap.CodesType.Valid() {
		return fmt.Errorf("unsupported codes_type %q", snap.CodesType)
	}
	if snap.CodeLength <= 0 {
		return fmt.Errorf("code_length must be positive, got %d", snap.CodeLength)
	}
	stats.Mode = string(snap.CodesType)

	pool := g.store.Repos().Pool
	g.seqNext = 0
	lotSize := int64(g.cfg.LotSize)

	log.Printf("[Pool] Generating %d %s codes of length %d in lots of %d",
		g.cfg.TotalCodes, snap.CodesType, snap.CodeLength, lotSize)

	for remaining := g.cfg.TotalCodes; remaining > 0; {
		n := min(lotSize, remaining)
		if err := g.fillLot(ctx, pool, snap, n, stats); err != nil {
			return err
		}
		stats.Lots++
		remaining -= n
	}

	if size, err := pool.Count(ctx); err == nil {
		metrics.PoolSize.Set(float64(size))
	}

	if err := g.settings.AddTotalGenerated(ctx, snap, g.cfg.TotalCodes); err != nil {
		return fmt.Errorf("failed to record generated total: %w", err)
	}
	return nil
}

// fillLot inserts exactly n new codes, regenerating the shortfall after
// every batch that lost candidates to duplicates.
func (g *PoolGenerator) fillLot(ctx context.Context, pool store.PoolStore, snap *models.SuperConfig, n int64, stats *PoolStats) error {
	stalled := 0
	for needed := n; needed > 0; {
		prior, err := pool.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pool: %w", err)
		}

		// sequential values never step back, or a collision would be retried forever
		start := max(prior, g.seqNext)
		candidates, err := g.candidates(snap, start, needed)
		if err != nil {
			return err
		}
		g.seqNext = start + needed

		inserted, err := pool.InsertSkipDuplicates(ctx, candidates)
		if err != nil {
			return fmt.Errorf("failed to insert lot: %w", err)
		}

		stats.Inserted += inserted
		stats.Collisions += needed - inserted
		metrics.PoolCodesInserted.Add(float64(inserted))
		metrics.PoolCollisions.Add(float64(needed - inserted))

		if inserted == 0 {
			stalled++
			if g.cfg.MaxStalledRetries > 0 && stalled >= g.cfg.MaxStalledRetries {
				return fmt.Errorf("%w: no new codes after %d attempts", ErrPoolSaturated, stalled)
			}
		} else {
			stalled = 0
		}
		needed -= inserted
	}
	return nil
}

func (g *PoolGenerator) candidates(snap *models.SuperConfig, start, n int64) ([]string, error) {
	out := make([]string, 0, n)
	switch snap.CodesType {
	case models.CodeTypeSequential:
		for j := int64(0); j < n; j++ {
			code, err := SequentialCode(start+j, snap.CodeLength)
			if err != nil {
				return nil, err
			}
			out = append(out, code)
		}
	default:
		g.rngMu.Lock()
		for j := int64(0); j < n; j++ {
			out = append(out, randomCode(g.rng, snap.CodeLength))
		}
		g.rngMu.Unlock()
	}
	return out, nil
}

// SequentialCode renders value as upper-case base 36, left-padded with '0'
// to length.
func SequentialCode(value int64, length int) (string, error) {
	s := strings.ToUpper(strconv.FormatInt(value, 36))
	if len(s) > length {
		return "", fmt.Errorf("%w: %d needs %d symbols", ErrSequenceExhausted, value, len(s))
	}
	return strings.Repeat("0", length-len(s)) + s, nil
}

func randomCode(rng *rand.Rand, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = CodeAlphabet[rng.Intn(len(CodeAlphabet))]
	}
	return string(b)
}
