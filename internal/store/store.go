// Package store declares the persistence contracts used by the code
// generation services. The postgres implementation lives in
// internal/repositories; internal/store/memstore is an in-memory one.
package store

import (
	"context"
	"errors"

	"codegen-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// Fixed container tables shared across generations.
const (
	ContainerCodesTable   = "sscc_codes"
	ContainerSummaryTable = "sscc_code_summary"
)

type RequestStore interface {
	// ListPending returns requested rows oldest first, restricted to
	// approved e-signatures when requireESign is set.
	ListPending(ctx context.Context, requireESign bool) ([]models.CodeRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	GetCodeStructure(ctx context.Context, countryID string) (*models.CountryCodeStructure, error)
}

type PoolStore interface {
	Count(ctx context.Context) (int64, error)
	// InsertSkipDuplicates inserts codes, silently skipping any already
	// present, and returns how many rows were actually added.
	InsertSkipDuplicates(ctx context.Context, codes []string) (int64, error)
	// Fetch returns up to limit entries ordered by sequence position,
	// skipping the first offset entries.
	Fetch(ctx context.Context, offset, limit int64) ([]models.PoolEntry, error)
}

type SchemaStore interface {
	TableExists(ctx context.Context, name string) (bool, error)
	CreateUnitCodeTable(ctx context.Context, name string) error
	CreateContainerCodeTable(ctx context.Context) error
	CreateContainerSummaryTable(ctx context.Context) error
}

type CodeStore interface {
	InsertLevelCodes(ctx context.Context, table string, codes []models.LevelCode) error
	// TakenSerials returns the subset of serials already present in table.
	TakenSerials(ctx context.Context, table string, serials []int64) ([]int64, error)
	InsertContainerCodes(ctx context.Context, codes []models.ContainerCode) error
}

type SummaryStore interface {
	GetUnitCursor(ctx context.Context, key models.UnitCursorKey) (*models.UnitCursor, error)
	CreateUnitCursor(ctx context.Context, cursor *models.UnitCursor) error
	AddToUnitCursor(ctx context.Context, id string, n int64) error
	// AnyUnitCursorReached reports whether some unit cursor has
	// last_generated >= threshold.
	AnyUnitCursorReached(ctx context.Context, threshold float64) (bool, error)
	// UnitConsumedTotal sums last_generated over every unit cursor, which
	// is the number of pool entries handed out so far.
	UnitConsumedTotal(ctx context.Context) (int64, error)

	GetContainerCursor(ctx context.Context, prefix string) (*models.ContainerCursor, error)
	CreateContainerCursor(ctx context.Context, cursor *models.ContainerCursor) error
	AddToContainerCursor(ctx context.Context, id string, n int64) error
}

type SettingStore interface {
	GetSuperConfig(ctx context.Context) (*models.SuperConfig, error)
	AddTotalCodeGenerated(ctx context.Context, id string, n int64) error
}

// Repos bundles the stores bound to one connection or transaction.
type Repos struct {
	Requests RequestStore
	Catalog  CatalogStore
	Pool     PoolStore
	Schema   SchemaStore
	Codes    CodeStore
	Summary  SummaryStore
	Settings SettingStore
}

// Store hands out repositories, either directly or inside a transaction.
type Store interface {
	Repos() Repos
	// WithinTx runs fn inside one transaction. Every write made through the
	// Repos passed to fn commits when fn returns nil and is discarded
	// otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
