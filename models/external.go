package models

// RawCountry is a country record as served by the countries upstream.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population *int64        `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ExternalData is the merged result of one successful upstream fetch.
type ExternalData struct {
	Countries []RawCountry
	Rates     map[string]float64 // currency code -> units per reference currency
}
