package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	CountriesAPI     = "Countries API"
	ExchangeRatesAPI = "Exchange Rates API"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 16 << 20

type ExternalDataClient interface {
	FetchExternalData(ctx context.Context) (*models.ExternalData, error)
}

// UpstreamError reports which upstream could not be reached or parsed.
type UpstreamError struct {
	Upstream string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("could not fetch data from %s: %v", e.Upstream, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type ExternalClient struct {
	httpClient   *http.Client
	countriesURL string
	ratesURL     string
}

func NewExternalClient(countriesURL, ratesURL string, timeout time.Duration) *ExternalClient {
	return &ExternalClient{
		httpClient:   &http.Client{Timeout: timeout},
		countriesURL: countriesURL,
		ratesURL:     ratesURL,
	}
}

// FetchExternalData requests both upstreams concurrently. Either failure fails the
// whole fetch; no partial result is returned.
func (c *ExternalClient) FetchExternalData(ctx context.Context) (*models.ExternalData, error) {
	var (
		countries []models.RawCountry
		rates     map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := c.fetchCountries(gctx)
		if err != nil {
			return &UpstreamError{Upstream: CountriesAPI, Err: err}
		}
		countries = result
		return nil
	})
	g.Go(func() error {
		result, err := c.fetchRates(gctx)
		if err != nil {
			return &UpstreamError{Upstream: ExchangeRatesAPI, Err: err}
		}
		rates = result
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.ExternalData{Countries: countries, Rates: rates}, nil
}

func (c *ExternalClient) fetchCountries(ctx context.Context) ([]models.RawCountry, error) {
	body, err := c.get(ctx, c.countriesURL)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, errors.New("unexpected countries payload: not a JSON array")
	}

	var countries []models.RawCountry
	if err := json.Unmarshal(body, &countries); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	return countries, nil
}

func (c *ExternalClient) fetchRates(ctx context.Context) (map[string]float64, error) {
	body, err := c.get(ctx, c.ratesURL)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("unexpected rates payload: invalid JSON")
	}

	if result := gjson.GetBytes(body, "result"); result.Exists() && result.String() != "success" {
		return nil, fmt.Errorf("rates upstream reported %q", result.String())
	}

	ratesField := gjson.GetBytes(body, "rates")
	if !ratesField.IsObject() {
		return nil, errors.New("unexpected rates payload: missing rates object")
	}

	rates := make(map[string]float64)
	ratesField.ForEach(func(code, value gjson.Result) bool {
		if value.Type == gjson.Number {
			rates[code.String()] = value.Float()
		}
		return true
	})
	return rates, nil
}

func (c *ExternalClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
