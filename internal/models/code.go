package models

// LevelCode is one unit-level code stored in a per-(generation, level) table.
type LevelCode struct {
	SerialNo    int64  `json:"serial_no"`
	ProductID   string `json:"product_id"`
	BatchID     string `json:"batch_id"`
	LocationID  string `json:"location_id"`
	RequestID   string `json:"code_gen_id"`
	UniqueCode  string `json:"unique_code"`
	CountryCode string `json:"country_code"`
}

// ContainerCode is one SSCC assigned to a case or pallet.
type ContainerCode struct {
	SSCCCode         string `json:"sscc_code"`
	PackLevel        int    `json:"pack_level"`
	ProductID        string `json:"product_id"`
	BatchID          string `json:"batch_id"`
	ProductHistoryID string `json:"product_history_id"`
	LocationID       string `json:"location_id"`
	RequestID        string `json:"code_gen_id"`
}
