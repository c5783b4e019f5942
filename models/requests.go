package models

import "time"

// CountryFilter holds the optional, ANDed filters of a country listing.
type CountryFilter struct {
	Region        string
	Currency      string
	MinPopulation *int64
	MaxPopulation *int64
	Sort          string
}

type AddCountryRequest struct {
	Name         string   `json:"name" binding:"required"`
	Capital      *string  `json:"capital"`
	Region       *string  `json:"region"`
	Population   *int64   `json:"population" binding:"required,gte=0"`
	CurrencyCode *string  `json:"currency_code" binding:"omitempty,max=10"`
	ExchangeRate *float64 `json:"exchange_rate" binding:"omitempty,gte=0"`
	EstimatedGDP *float64 `json:"estimated_gdp" binding:"omitempty,gte=0"`
	FlagURL      *string  `json:"flag_url"`
}

type RefreshResult struct {
	Updated int `json:"updated"`
}

type StatusResponse struct {
	TotalCountries  int64   `json:"total_countries"`
	LastRefreshedAt *string `json:"last_refreshed_at"`
}

// ISOTimestamp is the layout used for every timestamp rendered outside of a Country row.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC, or nil when t is unset.
func FormatTimestamp(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(ISOTimestamp)
	return &s
}

type MessageResponse struct {
	Message string `json:"message"`
}
