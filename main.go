package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/config"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/handlers"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/middleware"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/render"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/scheduler"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/services"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/store"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const scheduledRefreshTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	logger.WithField("driver", cfg.DBDriver).Info("Database ready")

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create cache directory")
	}

	countryStore := store.NewCountryStore(db)
	renderer := render.NewSummaryRenderer(countryStore, cfg.CacheDir)
	client := utils.NewExternalClient(cfg.CountriesAPIURL, cfg.ExchangeRatesURL, cfg.ExternalTimeout)

	refreshService := services.NewRefreshService(client, countryStore, renderer, logger, services.RefreshOptions{
		BatchSize:   cfg.RefreshBatchSize,
		Concurrency: cfg.RefreshWorkers,
	})
	countryService := services.NewCountryService(countryStore, renderer, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Countries: handlers.NewCountryHandler(
			countryService,
			refreshService,
			renderer.Path(),
			handlers.NewErrorResponder(logger, cfg.IsProduction()),
		),
		Health:      handlers.NewHealthHandler(cfg.Environment),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		Log:         logger,
	})

	var sched *scheduler.Scheduler
	if cfg.RefreshSchedule != "" {
		sched, err = scheduler.New(cfg.RefreshSchedule, refreshService, scheduledRefreshTimeout, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure refresh schedule")
		}
		sched.Start()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctrlc
		logger.Info("Shutting down")

		if sched != nil {
			<-sched.Stop().Done()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("Starting countries API server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Failed to start server")
	}
	<-drained

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
