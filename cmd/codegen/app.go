package main

import (
	"context"
	"fmt"
	"log"

	"codegen-backend/internal/cache"
	"codegen-backend/internal/config"
	"codegen-backend/internal/db"
	"codegen-backend/internal/metrics"
	"codegen-backend/internal/repositories"
	"codegen-backend/internal/services"
	"codegen-backend/internal/store"
	"codegen-backend/internal/store/memstore"
	"codegen-backend/internal/timeutil"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Guard and lock names shared by every worker process.
const (
	poolGuardName = "pool-generation"
	passGuardName = "request-pass"
)

// app holds the wired services of one process.
type app struct {
	cfg   *config.Config
	db    *pgxpool.Pool
	store store.Store

	settings  *services.SettingsService
	generator *services.PoolGenerator
	processor *services.RequestProcessor
	monitor   *services.CapacityMonitor
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	metrics.Register()

	a := &app{cfg: cfg}

	switch cfg.Storage.Driver {
	case "memory":
		log.Printf("[Config] Using in-memory store; nothing is persisted")
		a.store = memstore.New()
	default:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = pool
		a.store = repositories.NewPostgresStore(pool)
	}

	// Redis is optional; without it guards are process-local
	var locker services.Locker
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Printf("[Redis] Unavailable at %s, continuing without cache and remote locks: %v", cfg.RedisAddr(), err)
		} else {
			log.Printf("[Redis] Connected to %s", cfg.RedisAddr())
			if lock := cache.NewRedisLock(cfg.Redis.LockTTL); lock != nil {
				locker = lock
			}
		}
	}

	loc := timeutil.Load(cfg.Codegen.Timezone)

	cacheTTL := cfg.Redis.ConfigTTL
	if !cfg.Redis.Enabled {
		cacheTTL = 0
	}
	a.settings = services.NewSettingsService(a.store, cacheTTL)

	a.generator = services.NewPoolGenerator(a.store, a.settings, services.NewRunGuard(poolGuardName, locker), services.PoolConfig{
		TotalCodes:        cfg.Codegen.TotalCodes,
		LotSize:           cfg.Codegen.LotSize,
		MaxStalledRetries: cfg.Codegen.MaxStalledRetries,
	})
	a.processor = services.NewRequestProcessor(a.store, a.settings, services.NewRunGuard(passGuardName, locker), services.ProcessorConfig{
		LotSize:        cfg.Codegen.LotSize,
		PassTimeout:    cfg.Codegen.PassTimeout,
		ExtensionDigit: cfg.Codegen.ExtensionDigit,
		Location:       loc,
	}, a.generator)
	a.monitor = services.NewCapacityMonitor(a.store, a.settings, a.generator)

	return a, nil
}

func (a *app) requirePostgres() error {
	if a.db == nil {
		return fmt.Errorf("storage driver %q has no database", a.cfg.Storage.Driver)
	}
	return nil
}

func (a *app) Close() {
	a.generator.Wait()
	cache.Close()
	if a.db != nil {
		a.db.Close()
	}
}
