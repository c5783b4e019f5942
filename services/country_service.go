package services

import (
	"context"
	"strings"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopLimit = 5
	MaxTopLimit     = 250
)

// CountryStore is the data store as seen by the query service.
type CountryStore interface {
	Upsert(ctx context.Context, country *models.Country) error
	List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error)
	GetByNormalizedName(ctx context.Context, normalized string) (*models.Country, error)
	DeleteByNormalizedName(ctx context.Context, normalized string) (bool, error)
	TopByGDP(ctx context.Context, limit int) ([]models.Country, error)
	Count(ctx context.Context) (int64, error)
	LastRefreshedAt(ctx context.Context) (*time.Time, error)
}

type CountryService struct {
	store      CountryStore
	renderer   SummaryRenderer
	log        *logrus.Logger
	multiplier func() int
	now        func() time.Time
}

func NewCountryService(store CountryStore, renderer SummaryRenderer, log *logrus.Logger) *CountryService {
	return &CountryService{
		store:      store,
		renderer:   renderer,
		log:        log,
		multiplier: utils.RandomGDPMultiplier,
		now:        time.Now,
	}
}

func (s *CountryService) List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error) {
	countries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, Internal(err)
	}
	return countries, nil
}

// GetByName returns nil, nil when no country matches the normalized name.
func (s *CountryService) GetByName(ctx context.Context, name string) (*models.Country, error) {
	country, err := s.store.GetByNormalizedName(ctx, utils.NormalizeName(name))
	if err != nil {
		return nil, Internal(err)
	}
	return country, nil
}

func (s *CountryService) DeleteByName(ctx context.Context, name string) (bool, error) {
	deleted, err := s.store.DeleteByNormalizedName(ctx, utils.NormalizeName(name))
	if err != nil {
		return false, Internal(err)
	}
	if deleted {
		s.log.WithField("country", name).Info("country deleted")
	}
	return deleted, nil
}

func (s *CountryService) TopByGDP(ctx context.Context, limit int) ([]models.Country, error) {
	countries, err := s.store.TopByGDP(ctx, CoerceTopLimit(limit))
	if err != nil {
		return nil, Internal(err)
	}
	return countries, nil
}

func (s *CountryService) Status(ctx context.Context) (*models.StatusResponse, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	refreshedAt, err := s.store.LastRefreshedAt(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	return &models.StatusResponse{
		TotalCountries:  total,
		LastRefreshedAt: models.FormatTimestamp(refreshedAt),
	}, nil
}

// AddCountry upserts a manually supplied country and regenerates the summary image.
// A supplied GDP is kept; without one it is estimated from the exchange rate.
// The request is expected to be validated already.
func (s *CountryService) AddCountry(ctx context.Context, req models.AddCountryRequest) (*models.Country, error) {
	name := strings.TrimSpace(req.Name)
	country := &models.Country{
		Name:            name,
		NameNormalized:  utils.NormalizeName(name),
		Capital:         req.Capital,
		Region:          req.Region,
		Population:      *req.Population,
		CurrencyCode:    req.CurrencyCode,
		ExchangeRate:    req.ExchangeRate,
		FlagURL:         req.FlagURL,
		LastRefreshedAt: s.now().UTC(),
	}
	switch {
	case country.ExchangeRate == nil || *country.ExchangeRate == 0:
		country.ExchangeRate = nil
		country.EstimatedGDP = 0
	case req.EstimatedGDP != nil:
		country.EstimatedGDP = *req.EstimatedGDP
	default:
		country.EstimatedGDP, country.ExchangeRate = utils.EstimateGDP(country.Population, country.ExchangeRate, s.multiplier())
	}

	if err := s.store.Upsert(ctx, country); err != nil {
		return nil, Internal(err)
	}
	s.log.WithField("country", name).Info("country added or updated")

	if _, err := s.renderer.RenderSummary(ctx); err != nil {
		s.log.WithError(err).Warn("summary image generation failed")
	}

	return country, nil
}

// CoerceTopLimit maps non-positive limits to the default and caps large ones.
func CoerceTopLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopLimit
	}
	if limit > MaxTopLimit {
		return MaxTopLimit
	}
	return limit
}
