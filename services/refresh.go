package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/metrics"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 25
	DefaultConcurrency = 5
)

// RefreshStore is the subset of the data store the pipeline writes to.
type RefreshStore interface {
	Upsert(ctx context.Context, country *models.Country) error
	TouchMeta(ctx context.Context, refreshedAt time.Time) error
}

type SummaryRenderer interface {
	RenderSummary(ctx context.Context) ([]byte, error)
}

type RefreshOptions struct {
	BatchSize   int
	Concurrency int
}

type RefreshService struct {
	client     utils.ExternalDataClient
	store      RefreshStore
	renderer   SummaryRenderer
	log        *logrus.Logger
	batchSize  int
	workers    int
	multiplier func() int
	now        func() time.Time
}

func NewRefreshService(client utils.ExternalDataClient, store RefreshStore, renderer SummaryRenderer, log *logrus.Logger, opts RefreshOptions) *RefreshService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &RefreshService{
		client:     client,
		store:      store,
		renderer:   renderer,
		log:        log,
		batchSize:  opts.BatchSize,
		workers:    opts.Concurrency,
		multiplier: utils.RandomGDPMultiplier,
		now:        time.Now,
	}
}

// Refresh fetches both upstreams, upserts every usable country, stamps Meta and
// regenerates the summary image. Nothing is written when the fetch fails.
func (s *RefreshService) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	startedAt := s.now().UTC()
	s.log.Info("refresh started")

	data, err := s.client.FetchExternalData(ctx)
	if err != nil {
		metrics.RecordRefresh("upstream_unavailable", time.Since(startedAt), 0, 0, 0)
		var upstreamErr *utils.UpstreamError
		if errors.As(err, &upstreamErr) {
			s.log.WithError(upstreamErr.Err).WithField("upstream", upstreamErr.Upstream).Error("refresh aborted: upstream unavailable")
			return nil, UpstreamUnavailable(upstreamErr.Upstream, err)
		}
		s.log.WithError(err).Error("refresh aborted: upstream unavailable")
		return nil, UpstreamUnavailable("External API", err)
	}

	rows, skipped := s.buildRows(data, startedAt)
	updated, failed := s.upsertAll(ctx, rows)

	if err := s.store.TouchMeta(ctx, startedAt); err != nil {
		metrics.RecordRefresh("error", time.Since(startedAt), updated, skipped, failed)
		return nil, Internal(err)
	}

	if _, err := s.renderer.RenderSummary(ctx); err != nil {
		s.log.WithError(err).Warn("summary image generation failed")
	}

	metrics.RecordRefresh("success", time.Since(startedAt), updated, skipped, failed)
	s.log.WithFields(logrus.Fields{
		"fetched": len(data.Countries),
		"updated": updated,
		"skipped": skipped,
		"failed":  failed,
	}).Info("refresh completed")

	return &models.RefreshResult{Updated: updated}, nil
}

// buildRows normalizes raw records and computes their GDP. Records without a name
// or a positive population are skipped, not fatal.
func (s *RefreshService) buildRows(data *models.ExternalData, refreshedAt time.Time) ([]*models.Country, int) {
	rows := make([]*models.Country, 0, len(data.Countries))
	skipped := 0

	for _, raw := range data.Countries {
		name := strings.TrimSpace(raw.Name)
		if name == "" || raw.Population == nil || *raw.Population <= 0 {
			skipped++
			continue
		}

		var currencyCode *string
		if len(raw.Currencies) > 0 && raw.Currencies[0].Code != "" {
			code := raw.Currencies[0].Code
			currencyCode = &code
		}

		var rate *float64
		if currencyCode != nil {
			rate = utils.LookupRate(data.Rates, *currencyCode)
		}
		gdp, rate := utils.EstimateGDP(*raw.Population, rate, s.multiplier())

		rows = append(rows, &models.Country{
			Name:            name,
			NameNormalized:  utils.NormalizeName(name),
			Capital:         optional(raw.Capital),
			Region:          optional(raw.Region),
			Population:      *raw.Population,
			CurrencyCode:    currencyCode,
			ExchangeRate:    rate,
			EstimatedGDP:    gdp,
			FlagURL:         optional(raw.Flag),
			LastRefreshedAt: refreshedAt,
		})
	}

	return rows, skipped
}

// upsertAll writes rows in fixed-size batches, each processed with bounded
// concurrency. A failed row is logged and left out of the count.
func (s *RefreshService) upsertAll(ctx context.Context, rows []*models.Country) (int, int) {
	var updated, failed atomic.Int64

	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))

		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, row := range rows[start:end] {
			row := row
			g.Go(func() error {
				if err := s.store.Upsert(ctx, row); err != nil {
					failed.Add(1)
					s.log.WithError(err).WithField("country", row.Name).Warn("country upsert failed")
					return nil
				}
				updated.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}

	return int(updated.Load()), int(failed.Load())
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
