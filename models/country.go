package models

import (
	"time"
)

type Country struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	NameNormalized  string    `gorm:"uniqueIndex;size:255;not null" json:"name_normalized"`
	Capital         *string   `gorm:"size:255" json:"capital"`
	Region          *string   `gorm:"size:100;index" json:"region"`
	Population      int64     `gorm:"not null" json:"population"`
	CurrencyCode    *string   `gorm:"size:10;index" json:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate"`
	EstimatedGDP    float64   `gorm:"column:estimated_gdp;not null;default:0" json:"estimated_gdp"`
	FlagURL         *string   `gorm:"size:500" json:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// TableName overrides the table name
func (Country) TableName() string {
	return "countries"
}

// Meta is the singleton row tracking when the whole dataset was last refreshed.
type Meta struct {
	ID              uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// MetaID is the primary key of the only Meta row.
const MetaID = 1

// TableName overrides the table name
func (Meta) TableName() string {
	return "meta"
}
