package models

import "time"

// PoolEntry is one code of the shared pool; ID is its sequence position.
type PoolEntry struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type CodeType string

const (
	CodeTypeRandom     CodeType = "random"
	CodeTypeSequential CodeType = "sequential"
)

func (t CodeType) Valid() bool {
	return t == CodeTypeRandom || t == CodeTypeSequential
}
