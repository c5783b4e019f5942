package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertColumns are overwritten when a row with the same normalized name already exists.
var upsertColumns = []string{
	"name",
	"capital",
	"region",
	"population",
	"currency_code",
	"exchange_rate",
	"estimated_gdp",
	"flag_url",
	"last_refreshed_at",
	"updated_at",
}

// sortColumns is the allow-list for ordering country listings.
var sortColumns = map[string]string{
	"estimated_gdp": "estimated_gdp",
	"population":    "population",
	"name":          "name",
}

// AutoMigrate creates the countries and meta tables if they do not exist.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Country{}, &models.Meta{})
}

type CountryStore struct {
	db *gorm.DB
}

func NewCountryStore(db *gorm.DB) *CountryStore {
	return &CountryStore{db: db}
}

// Upsert inserts the country or, on a normalized-name match, updates every mutable field.
func (s *CountryStore) Upsert(ctx context.Context, country *models.Country) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_normalized"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(country).Error
	if err != nil {
		return fmt.Errorf("upsert country %q: %w", country.NameNormalized, err)
	}
	return nil
}

func (s *CountryStore) List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error) {
	query := s.db.WithContext(ctx).Model(&models.Country{})

	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Currency != "" {
		query = query.Where("currency_code = ?", filter.Currency)
	}
	if filter.MinPopulation != nil {
		query = query.Where("population >= ?", *filter.MinPopulation)
	}
	if filter.MaxPopulation != nil {
		query = query.Where("population <= ?", *filter.MaxPopulation)
	}

	if column, ok := sortColumns[filter.Sort]; ok {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: true})
	} else {
		query = query.Order("id")
	}

	countries := []models.Country{}
	if err := query.Find(&countries).Error; err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}

// GetByNormalizedName returns nil without error when no row matches.
func (s *CountryStore) GetByNormalizedName(ctx context.Context, normalized string) (*models.Country, error) {
	var country models.Country
	err := s.db.WithContext(ctx).Where("name_normalized = ?", normalized).First(&country).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get country %q: %w", normalized, err)
	}
	return &country, nil
}

// DeleteByNormalizedName reports whether a row was actually removed.
func (s *CountryStore) DeleteByNormalizedName(ctx context.Context, normalized string) (bool, error) {
	result := s.db.WithContext(ctx).Where("name_normalized = ?", normalized).Delete(&models.Country{})
	if result.Error != nil {
		return false, fmt.Errorf("delete country %q: %w", normalized, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *CountryStore) TopByGDP(ctx context.Context, limit int) ([]models.Country, error) {
	countries := []models.Country{}
	err := s.db.WithContext(ctx).
		Order("estimated_gdp DESC").
		Limit(limit).
		Find(&countries).Error
	if err != nil {
		return nil, fmt.Errorf("top countries by gdp: %w", err)
	}
	return countries, nil
}

func (s *CountryStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Country{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return total, nil
}

// LastRefreshedAt returns nil until the first refresh has completed.
func (s *CountryStore) LastRefreshedAt(ctx context.Context) (*time.Time, error) {
	var meta models.Meta
	err := s.db.WithContext(ctx).Where("id = ?", models.MetaID).Limit(1).Find(&meta).Error
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	return meta.LastRefreshedAt, nil
}

// TouchMeta stamps the dataset-wide refresh time, creating the singleton row on first use.
func (s *CountryStore) TouchMeta(ctx context.Context, refreshedAt time.Time) error {
	meta := models.Meta{ID: models.MetaID, LastRefreshedAt: &refreshedAt}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_refreshed_at"}),
	}).Create(&meta).Error
	if err != nil {
		return fmt.Errorf("update meta: %w", err)
	}
	return nil
}
