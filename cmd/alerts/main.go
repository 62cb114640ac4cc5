package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/deforestation-alerts/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/deforestation-alerts/internal/adapter/kafka"
	"github.com/couchcryptid/deforestation-alerts/internal/adapter/mapbox"
	"github.com/couchcryptid/deforestation-alerts/internal/adapter/store"
	"github.com/couchcryptid/deforestation-alerts/internal/config"
	"github.com/couchcryptid/deforestation-alerts/internal/domain"
	"github.com/couchcryptid/deforestation-alerts/internal/imagery"
	"github.com/couchcryptid/deforestation-alerts/internal/impact"
	"github.com/couchcryptid/deforestation-alerts/internal/job"
	"github.com/couchcryptid/deforestation-alerts/internal/observability"
	"github.com/couchcryptid/deforestation-alerts/internal/patch"
)

// demoGridSize is the synthetic raster edge length. At ~10m pixels this
// covers roughly 2.56 km per side.
const demoGridSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogSettings{Level: cfg.LogLevel, Format: cfg.LogFormat})
	metrics := observability.NewMetrics()

	classifier, err := domain.NewClassifier(cfg.Thresholds())
	if err != nil {
		logger.Error("invalid severity thresholds", "error", err)
		os.Exit(1)
	}

	// The synthetic source is the only imagery feed; without it there is
	// nothing to analyze.
	if !cfg.DemoMode {
		logger.Error("no imagery source configured, set DEMO_MODE=true")
		os.Exit(1)
	}
	imagerySource := imagery.NewSynthetic(demoGridSize, demoGridSize)

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var notifier job.Notifier
	var notifierClose func() error
	if cfg.KafkaEnabled {
		kn := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		notifier = kn
		notifierClose = kn.Close
		logger.Info("kafka completion notices enabled", "topic", cfg.KafkaSinkTopic)
	}

	var archiver job.Archiver
	var archiveClose func() error
	if cfg.SQLitePath != "" {
		jobStore, err := store.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open analysis archive", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		archiver = jobStore
		archiveClose = jobStore.Close
		logger.Info("analysis archive enabled", "path", cfg.SQLitePath)
	}

	registry := job.NewRegistry()
	coordinator := job.NewCoordinator(job.Deps{
		Registry:   registry,
		Imagery:    imagerySource,
		Classifier: classifier,
		Extractor: patch.NewExtractor(patch.Config{
			MinPatchHectares: cfg.MinPatchHectares,
			HighThreshold:    cfg.ThresholdHigh,
		}, logger),
		Model:         impact.NewModel(impact.Rounding{MinRegrowthMonths: cfg.MinRegrowthMonths}),
		Notifier:      notifier,
		Archiver:      archiver,
		Logger:        logger,
		Metrics:       metrics,
		MaxConcurrent: int64(cfg.MaxConcurrentAnalyses),
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Options{
		Service:        coordinator,
		Jobs:           registry,
		Geocoder:       geocoder,
		MaxBBoxDegrees: cfg.MaxBBoxDegrees,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if notifierClose != nil {
		if err := notifierClose(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}
	if archiveClose != nil {
		if err := archiveClose(); err != nil {
			logger.Error("analysis archive close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
