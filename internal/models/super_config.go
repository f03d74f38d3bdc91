package models

// SuperConfig is the process configuration row read at the start of every
// pass and pool run.
type SuperConfig struct {
	ID                 string   `json:"id"`
	CodeLength         int      `json:"code_length"`
	CodesType          CodeType `json:"codes_type"`
	ProductCodeLength  int      `json:"product_code_length"`
	TotalCodeGenerated int64    `json:"total_code_generated"`
	ESignStatus        bool     `json:"esign_status"`
	CRMURL             string   `json:"crm_url"`
}
