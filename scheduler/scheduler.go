package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Refresher interface {
	Refresh(ctx context.Context) (*models.RefreshResult, error)
}

// Scheduler runs the refresh pipeline on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	log       *logrus.Logger
	timeout   time.Duration
}

func New(schedule string, refresher Refresher, timeout time.Duration, log *logrus.Logger) (*Scheduler, error) {
	cronLog := cron.PrintfLogger(log)
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		refresher: refresher,
		log:       log,
		timeout:   timeout,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("next_run", s.NextRun()).Info("scheduled refresh enabled")
}

// Stop prevents new runs and returns a context that is done once a running refresh finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled refresh failed")
		return
	}
	s.log.WithField("updated", result.Updated).Info("scheduled refresh completed")
}
