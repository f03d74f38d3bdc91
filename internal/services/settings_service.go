package services

import (
	"context"
	"fmt"
	"time"

	"codegen-backend/internal/cache"
	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

// SettingsService loads the superadmin configuration snapshot that every
// pass and pool run works from. Redis holds a short-lived copy when enabled.
type SettingsService struct {
	Store    store.Store
	CacheTTL time.Duration
}

func NewSettingsService(st store.Store, cacheTTL time.Duration) *SettingsService {
	return &SettingsService{Store: st, CacheTTL: cacheTTL}
}

func (s *SettingsService) Snapshot(ctx context.Context) (*models.SuperConfig, error) {
	if cfg, ok := cache.GetCachedSuperConfig(ctx); ok {
		return cfg, nil
	}

	cfg, err := s.Store.Repos().Settings.GetSuperConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if s.CacheTTL > 0 {
		cache.CacheSuperConfig(ctx, cfg, s.CacheTTL)
	}
	return cfg, nil
}

// AddTotalGenerated bumps total_code_generated and drops the cached copy
func (s *SettingsService) AddTotalGenerated(ctx context.Context, cfg *models.SuperConfig, n int64) error {
	if err := s.Store.Repos().Settings.AddTotalCodeGenerated(ctx, cfg.ID, n); err != nil {
		return err
	}
	cache.InvalidateSuperConfig(ctx)
	return nil
}
