package models

import "time"

type Product struct {
	ID             string `json:"id"`
	ProductName    string `json:"product_name"`
	Prefix         string `json:"prefix"`
	CountryID      string `json:"country_id"`
	NDC            string `json:"ndc"`
	GTIN           string `json:"gtin"`
	RegistrationNo string `json:"registration_no"`
}

type Batch struct {
	ID                string    `json:"id"`
	LocationID        string    `json:"location_id"`
	ProductHistoryID  string    `json:"producthistory_uuid"`
	BatchNo           string    `json:"batch_no"`
	ManufacturingDate time.Time `json:"manufacturing_date"`
	ExpiryDate        time.Time `json:"expiry_date"`
}

// CountryCodeStructure is the printable code template of a country.
type CountryCodeStructure struct {
	CountryID     string `json:"country_id"`
	CodeStructure string `json:"code_structure"`
}
