package repositories

import (
	"context"
	"errors"
	"fmt"

	"codegen-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements store.Store on a pgx connection pool.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Repos() store.Repos {
	return reposFor(s.DB)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func reposFor(db DBTX) store.Repos {
	return store.Repos{
		Requests: NewCodeRequestRepository(db),
		Catalog:  NewCatalogRepository(db),
		Pool:     NewPoolRepository(db),
		Schema:   NewSchemaRepository(db),
		Codes:    NewCodeRepository(db),
		Summary:  NewSummaryRepository(db),
		Settings: NewSuperConfigRepository(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
