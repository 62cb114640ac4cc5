// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `validate:"required"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration

	// Severity classification thresholds (vegetation-index drop magnitude).
	ThresholdLow    float64 `validate:"gt=0"`
	ThresholdMedium float64 `validate:"gtfield=ThresholdLow"`
	ThresholdHigh   float64 `validate:"gtfield=ThresholdMedium"`

	MinPatchHectares      float64 `validate:"gte=0"`
	MaxBBoxDegrees        float64 `validate:"gt=0"`
	MaxConcurrentAnalyses int     `validate:"gte=1"`
	MinRegrowthMonths     int     `validate:"gte=0"`

	// DemoMode serves synthetic imagery instead of a satellite feed.
	DemoMode bool

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration `validate:"gt=0"`
	MapboxCacheSize int           `validate:"gte=1"`

	// Kafka completion-notice sink.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// SQLitePath is the analysis archive location. Empty disables archiving.
	SQLitePath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	thresholdLow, err := parseFloat("NDVI_THRESHOLD_LOW", 0.3)
	if err != nil {
		return nil, err
	}
	thresholdMedium, err := parseFloat("NDVI_THRESHOLD_MEDIUM", 0.4)
	if err != nil {
		return nil, err
	}
	thresholdHigh, err := parseFloat("NDVI_THRESHOLD_HIGH", 0.5)
	if err != nil {
		return nil, err
	}
	minPatch, err := parseFloat("MIN_PATCH_HECTARES", 1.0)
	if err != nil {
		return nil, err
	}
	maxBBox, err := parseFloat("MAX_BBOX_DEGREES", 1.0)
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := parseInt("MAX_CONCURRENT_ANALYSES", 4)
	if err != nil {
		return nil, err
	}
	minRegrowth, err := parseInt("MIN_REGROWTH_MONTHS", 12)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("MAPBOX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	kafkaBrokers := parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092"))
	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ThresholdLow:    thresholdLow,
		ThresholdMedium: thresholdMedium,
		ThresholdHigh:   thresholdHigh,

		MinPatchHectares:      minPatch,
		MaxBBoxDegrees:        maxBBox,
		MaxConcurrentAnalyses: maxConcurrent,
		MinRegrowthMonths:     minRegrowth,

		DemoMode: envOrDefault("DEMO_MODE", "true") == "true",

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: cacheSize,

		KafkaBrokers:   kafkaBrokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "deforestation-alerts"),
		KafkaEnabled:   kafkaEnabled,

		SQLitePath: os.Getenv("SQLITE_PATH"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && strings.HasPrefix(verrs[0].Field(), "Threshold") {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidThresholds, err)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

// Thresholds returns the classification thresholds as a domain value.
func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{Low: c.ThresholdLow, Medium: c.ThresholdMedium, High: c.ThresholdHigh}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
