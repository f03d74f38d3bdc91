package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"
)

// CatalogRepository reads the product master data requests refer to
type CatalogRepository struct {
	DB DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id::text, product_name, COALESCE(prefix, ''), COALESCE(country_id::text, ''),
		       COALESCE(ndc, ''), COALESCE(gtin, ''), COALESCE(registration_no, '')
		FROM products
		WHERE id = $1
	`

	p := &models.Product{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ProductName,
		&p.Prefix,
		&p.CountryID,
		&p.NDC,
		&p.GTIN,
		&p.RegistrationNo,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return p, nil
}

func (r *CatalogRepository) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	query := `
		SELECT id::text, COALESCE(location_id::text, ''), COALESCE(producthistory_uuid::text, ''),
		       batch_no, manufacturing_date, expiry_date
		FROM batches
		WHERE id = $1
	`

	b := &models.Batch{}
	var mfg, exp sql.NullTime
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.LocationID,
		&b.ProductHistoryID,
		&b.BatchNo,
		&mfg,
		&exp,
	)
	if err != nil {
		return nil, notFound(err)
	}
	b.ManufacturingDate = mfg.Time
	b.ExpiryDate = exp.Time

	return b, nil
}

func (r *CatalogRepository) GetCodeStructure(ctx context.Context, countryID string) (*models.CountryCodeStructure, error) {
	if countryID == "" {
		return nil, fmt.Errorf("product has no country: %w", store.ErrNotFound)
	}

	query := `
		SELECT id::text, code_structure
		FROM country_master
		WHERE id = $1
	`

	cs := &models.CountryCodeStructure{}
	if err := r.DB.QueryRow(ctx, query, countryID).Scan(&cs.CountryID, &cs.CodeStructure); err != nil {
		return nil, notFound(err)
	}

	return cs, nil
}
