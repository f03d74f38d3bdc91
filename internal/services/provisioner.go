package services

import (
	"context"
	"fmt"
	"log"

	"codegen-backend/internal/store"
)

// Provisioner creates code tables on first use. It is bound to one pass's
// transaction and remembers what it already verified.
type Provisioner struct {
	schema   store.SchemaStore
	verified map[string]bool
}

func NewProvisioner(schema store.SchemaStore) *Provisioner {
	return &Provisioner{schema: schema, verified: make(map[string]bool)}
}

// EnsureUnitStorage returns the unit code table for (generationID, level),
// creating it if absent.
func (p *Provisioner) EnsureUnitStorage(ctx context.Context, generationID string, level int) (string, error) {
	table, err := store.UnitTableName(generationID, level)
	if err != nil {
		return "", err
	}
	if err := p.ensure(ctx, table, func(ctx context.Context) error {
		return p.schema.CreateUnitCodeTable(ctx, table)
	}); err != nil {
		return "", err
	}
	return table, nil
}

// EnsureContainerStorage creates sscc_codes and sscc_code_summary if absent.
func (p *Provisioner) EnsureContainerStorage(ctx context.Context) error {
	if err := p.ensure(ctx, store.ContainerCodesTable, p.schema.CreateContainerCodeTable); err != nil {
		return err
	}
	return p.ensure(ctx, store.ContainerSummaryTable, p.schema.CreateContainerSummaryTable)
}

func (p *Provisioner) ensure(ctx context.Context, table string, create func(ctx context.Context) error) error {
	if p.verified[table] {
		return nil
	}

	exists, err := p.schema.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		log.Printf("[Pass] Table %s does not exist, creating", table)
		if err := create(ctx); err != nil {
			return fmt.Errorf("failed to provision %s: %w", table, err)
		}
	}

	p.verified[table] = true
	return nil
}
