package models

import "time"

// UnitCursorKey identifies a unit consumption cursor.
type UnitCursorKey struct {
	ProductID    string
	Level        string
	GenerationID string
}

type UnitCursor struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Level         string    `json:"packaging_hierarchy"`
	GenerationID  string    `json:"generation_id"`
	LastGenerated int64     `json:"last_generated"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *UnitCursor) Key() UnitCursorKey {
	return UnitCursorKey{ProductID: c.ProductID, Level: c.Level, GenerationID: c.GenerationID}
}

type ContainerCursor struct {
	ID            string    `json:"id"`
	CompanyPrefix string    `json:"company_prefix"`
	LastGenerated int64     `json:"last_generated"`
	UpdatedAt     time.Time `json:"updated_at"`
}
