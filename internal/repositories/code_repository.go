package repositories

import (
	"context"
	"fmt"

	"codegen-backend/internal/models"
	"codegen-backend/internal/store"

	"github.com/jackc/pgx/v5"
)

// CodeRepository writes allocated unit and container codes
type CodeRepository struct {
	DB DBTX
}

func NewCodeRepository(db DBTX) *CodeRepository {
	return &CodeRepository{DB: db}
}

// InsertLevelCodes bulk inserts one chunk of unit codes into a
// per-(generation, level) table as parallel arrays
func (r *CodeRepository) InsertLevelCodes(ctx context.Context, table string, codes []models.LevelCode) error {
	if len(codes) == 0 {
		return nil
	}
	if !store.ValidTableName(table) {
		return fmt.Errorf("invalid code table name %q", table)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s
			(product_id, batch_id, location_id, code_gen_id, unique_code, country_code, serial_no)
		SELECT p::uuid, b::uuid, NULLIF(l, '')::uuid, g, u, c, s
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::bigint[])
			AS t(p, b, l, g, u, c, s)
	`, pgx.Identifier{table}.Sanitize())

	n := len(codes)
	productIDs := make([]string, n)
	batchIDs := make([]string, n)
	locationIDs := make([]string, n)
	requestIDs := make([]string, n)
	uniqueCodes := make([]string, n)
	countryCodes := make([]string, n)
	serials := make([]int64, n)
	for i, c := range codes {
		productIDs[i] = c.ProductID
		batchIDs[i] = c.BatchID
		locationIDs[i] = c.LocationID
		requestIDs[i] = c.RequestID
		uniqueCodes[i] = c.UniqueCode
		countryCodes[i] = c.CountryCode
		serials[i] = c.SerialNo
	}

	_, err := r.DB.Exec(ctx, query,
		productIDs,
		batchIDs,
		locationIDs,
		requestIDs,
		uniqueCodes,
		countryCodes,
		serials,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d codes into %s: %w", n, table, err)
	}
	return nil
}

func (r *CodeRepository) TakenSerials(ctx context.Context, table string, serials []int64) ([]int64, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	if !store.ValidTableName(table) {
		return nil, fmt.Errorf("invalid code table name %q", table)
	}

	query := fmt.Sprintf(`SELECT serial_no FROM %s WHERE serial_no = ANY($1::bigint[]) ORDER BY serial_no`,
		pgx.Identifier{table}.Sanitize())

	rows, err := r.DB.Query(ctx, query, serials)
	if err != nil {
		return nil, fmt.Errorf("failed to check serials in %s: %w", table, err)
	}
	taken, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan serials in %s: %w", table, err)
	}
	return taken, nil
}

// InsertContainerCodes bulk inserts one chunk of SSCC codes
func (r *CodeRepository) InsertContainerCodes(ctx context.Context, codes []models.ContainerCode) error {
	if len(codes) == 0 {
		return nil
	}

	query := `
		INSERT INTO sscc_codes
			(sscc_code, pack_level, product_id, batch_id, product_history_id, location_id, code_gen_id)
		SELECT c, lvl, p::uuid, b::uuid, NULLIF(h, '')::uuid, NULLIF(l, '')::uuid, g::uuid
		FROM unnest($1::text[], $2::int[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
			AS t(c, lvl, p, b, h, l, g)
	`

	n := len(codes)
	ssccCodes := make([]string, n)
	levels := make([]int32, n)
	productIDs := make([]string, n)
	batchIDs := make([]string, n)
	historyIDs := make([]string, n)
	locationIDs := make([]string, n)
	requestIDs := make([]string, n)
	for i, c := range codes {
		ssccCodes[i] = c.SSCCCode
		levels[i] = int32(c.PackLevel)
		productIDs[i] = c.ProductID
		batchIDs[i] = c.BatchID
		historyIDs[i] = c.ProductHistoryID
		locationIDs[i] = c.LocationID
		requestIDs[i] = c.RequestID
	}

	_, err := r.DB.Exec(ctx, query,
		ssccCodes,
		levels,
		productIDs,
		batchIDs,
		historyIDs,
		locationIDs,
		requestIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d sscc codes: %w", n, err)
	}
	return nil
}
