package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func seedCountry(t *testing.T, s *CountryStore, name, region, currency string, population int64, gdp float64) {
	t.Helper()
	c := &models.Country{
		Name:            name,
		NameNormalized:  strings.ToLower(name),
		Population:      population,
		EstimatedGDP:    gdp,
		LastRefreshedAt: time.Now().UTC(),
	}
	if region != "" {
		c.Region = testutil.StrPtr(region)
	}
	if currency != "" {
		c.CurrencyCode = testutil.StrPtr(currency)
		c.ExchangeRate = testutil.Float64Ptr(1)
	}
	require.NoError(t, s.Upsert(context.Background(), c))
}

func TestCountryStoreUpsert(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewCountryStore(db)
	ctx := context.Background()

	first := &models.Country{
		Name:            "Ghana",
		NameNormalized:  "ghana",
		Capital:         testutil.StrPtr("Accra"),
		Population:      31000000,
		CurrencyCode:    testutil.StrPtr("GHS"),
		ExchangeRate:    testutil.Float64Ptr(15.5),
		EstimatedGDP:    3000000000,
		LastRefreshedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Upsert(ctx, first))

	got, err := s.GetByNormalizedName(ctx, "ghana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ghana", got.Name)
	assert.Equal(t, "Accra", *got.Capital)
	assert.Equal(t, int64(31000000), got.Population)
	createdAt := got.CreatedAt

	second := &models.Country{
		Name:            "Ghana",
		NameNormalized:  "ghana",
		Capital:         testutil.StrPtr("Accra"),
		Population:      32000000,
		LastRefreshedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Upsert(ctx, second))

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "re-upsert must not create a second row")

	got, err = s.GetByNormalizedName(ctx, "ghana")
	require.NoError(t, err)
	assert.Equal(t, int64(32000000), got.Population)
	assert.Nil(t, got.CurrencyCode)
	assert.Nil(t, got.ExchangeRate)
	assert.Zero(t, got.EstimatedGDP)
	assert.True(t, got.CreatedAt.Equal(createdAt), "created_at is preserved on update")
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestCountryStoreGetMissing(t *testing.T) {
	s := NewCountryStore(testutil.OpenTestDB(t))

	got, err := s.GetByNormalizedName(context.Background(), "atlantis")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCountryStoreList(t *testing.T) {
	s := NewCountryStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	seedCountry(t, s, "Nigeria", "Africa", "NGN", 206000000, 100)
	seedCountry(t, s, "Ghana", "Africa", "GHS", 31000000, 300)
	seedCountry(t, s, "France", "Europe", "EUR", 67000000, 900)
	seedCountry(t, s, "Monaco", "Europe", "EUR", 39000, 50)

	names := func(countries []models.Country) []string {
		out := make([]string, 0, len(countries))
		for _, c := range countries {
			out = append(out, c.Name)
		}
		return out
	}
	i64 := testutil.Int64Ptr

	tests := []struct {
		name   string
		filter models.CountryFilter
		want   []string
	}{
		{name: "No filters", filter: models.CountryFilter{}, want: []string{"Nigeria", "Ghana", "France", "Monaco"}},
		{name: "Region", filter: models.CountryFilter{Region: "Africa"}, want: []string{"Nigeria", "Ghana"}},
		{name: "Currency", filter: models.CountryFilter{Currency: "EUR"}, want: []string{"France", "Monaco"}},
		{name: "Population bounds are inclusive", filter: models.CountryFilter{MinPopulation: i64(31000000), MaxPopulation: i64(67000000)}, want: []string{"Ghana", "France"}},
		{name: "Min population only", filter: models.CountryFilter{MinPopulation: i64(100000000)}, want: []string{"Nigeria"}},
		{name: "Sort by gdp", filter: models.CountryFilter{Sort: "estimated_gdp"}, want: []string{"France", "Ghana", "Nigeria", "Monaco"}},
		{name: "Sort by population", filter: models.CountryFilter{Sort: "population"}, want: []string{"Nigeria", "France", "Ghana", "Monaco"}},
		{name: "Sort by name descends", filter: models.CountryFilter{Sort: "name"}, want: []string{"Nigeria", "Monaco", "Ghana", "France"}},
		{name: "Unknown sort is ignored", filter: models.CountryFilter{Sort: "capital; DROP TABLE countries"}, want: []string{"Nigeria", "Ghana", "France", "Monaco"}},
		{name: "Filters are ANDed", filter: models.CountryFilter{Region: "Europe", MaxPopulation: i64(100000), Sort: "population"}, want: []string{"Monaco"}},
		{name: "No match", filter: models.CountryFilter{Region: "Oceania"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestCountryStoreDelete(t *testing.T) {
	s := NewCountryStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	seedCountry(t, s, "Kenya", "Africa", "KES", 53000000, 10)

	deleted, err := s.DeleteByNormalizedName(ctx, "kenya")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteByNormalizedName(ctx, "kenya")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCountryStoreTopByGDP(t *testing.T) {
	s := NewCountryStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	seedCountry(t, s, "A", "", "", 1, 10)
	seedCountry(t, s, "B", "", "", 1, 40)
	seedCountry(t, s, "C", "", "", 1, 30)
	seedCountry(t, s, "D", "", "", 1, 20)

	top, err := s.TopByGDP(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []float64{40, 30, 20}, []float64{top[0].EstimatedGDP, top[1].EstimatedGDP, top[2].EstimatedGDP})
}

func TestCountryStoreMeta(t *testing.T) {
	s := NewCountryStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	got, err := s.LastRefreshedAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "no refresh has happened yet")

	first := time.Date(2025, 10, 22, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.TouchMeta(ctx, first))
	second := first.Add(time.Hour)
	require.NoError(t, s.TouchMeta(ctx, second))

	got, err = s.LastRefreshedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(second))

	var rows int64
	require.NoError(t, s.db.Model(&models.Meta{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCountryStoreUpsertPostgresStatement(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s := NewCountryStore(db)

	country := &models.Country{
		Name:            "Testland",
		NameNormalized:  "testland",
		Population:      1000,
		EstimatedGDP:    750000,
		LastRefreshedAt: time.Now().UTC(),
	}

	mock.ExpectQuery(`INSERT INTO "countries" .* ON CONFLICT \("name_normalized"\) DO UPDATE SET .*"estimated_gdp"="excluded"."estimated_gdp"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimated_gdp"}).AddRow(7, 750000.0))
	require.NoError(t, s.Upsert(context.Background(), country))
	assert.Equal(t, uint(7), country.ID)

	mock.ExpectQuery(`INSERT INTO "countries"`).WillReturnError(errors.New("connection reset"))
	err = s.Upsert(context.Background(), country)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "testland")

	assert.NoError(t, mock.ExpectationsWereMet())
}
