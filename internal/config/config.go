package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is built once at startup and
// injected into the ingestion orchestrator and the analytics engine; nothing
// reads ambient state after construction.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Ingest    IngestConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
}

// StorageConfig holds BigQuery and GCS configuration.
type StorageConfig struct {
	ProjectID string
	Dataset   string
	Bucket    string
}

// IngestConfig bounds what the orchestrator accepts and how the PDF extractor
// escalates to the vision model.
type IngestConfig struct {
	// MaxUploadBytes rejects any upload larger than this (default 50 MB).
	MaxUploadBytes int64

	// AllowedExtensions is the upload allow-list, lowercase without dots.
	AllowedExtensions []string

	// VisionModel is the Gemini model used for page analysis.
	VisionModel string

	// VisionPageTimeout bounds each per-page model call.
	VisionPageTimeout time.Duration

	// RasterDPI is the resolution used when rasterizing PDF pages.
	RasterDPI int

	// PdftotextBin and PdftoppmBin name the poppler binaries; bare names
	// resolve through PATH.
	PdftotextBin string
	PdftoppmBin  string
}

// AnalyticsConfig carries the statistical thresholds. The defaults are the
// behavioral contract; change them only if you accept different flagging.
type AnalyticsConfig struct {
	// AnomalySigma is the z-score above which a record is flagged (3.0).
	// MediumSigma and HighSigma raise the severity tier (4.0 and 5.0).
	AnomalySigma float64
	MediumSigma  float64
	HighSigma    float64

	// MinAnomalyGroup skips anomaly detection for category groups smaller
	// than this.
	MinAnomalyGroup int

	// TrendThresholdPct separates Increasing/Decreasing from Stable (5.0).
	TrendThresholdPct float64

	// VolatilityThresholdPct flags a series as volatile when the mean
	// absolute period-over-period change exceeds it (20.0).
	VolatilityThresholdPct float64

	// SignificanceThresholdPct flags a category comparison as significant
	// (10.0).
	SignificanceThresholdPct float64

	// MinForecastPoints is the minimum history length for forecasting (3).
	MinForecastPoints int
}

// Load builds a Config from environment variables with defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Storage: StorageConfig{
			ProjectID: getEnv("GCP_PROJECT", ""),
			Dataset:   getEnv("BQ_DATASET", "ledger"),
			Bucket:    getEnv("GCS_BUCKET", ""),
		},
		Ingest: IngestConfig{
			MaxUploadBytes:    getEnvAsInt64("MAX_UPLOAD_BYTES", 52_428_800),
			AllowedExtensions: getEnvAsList("ALLOWED_EXTENSIONS", []string{"xlsx", "xls", "csv", "pdf"}),
			VisionModel:       getEnv("VISION_MODEL", "gemini-2.5-flash"),
			VisionPageTimeout: getEnvAsDuration("VISION_PAGE_TIMEOUT", 60*time.Second),
			RasterDPI:         getEnvAsInt("RASTER_DPI", 200),
			PdftotextBin:      getEnv("PDFTOTEXT_BIN", "pdftotext"),
			PdftoppmBin:       getEnv("PDFTOPPM_BIN", "pdftoppm"),
		},
		Analytics: DefaultAnalytics(),
	}
}

// DefaultAnalytics returns the analytics thresholds as stated in the product
// contract.
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		AnomalySigma:             3.0,
		MediumSigma:              4.0,
		HighSigma:                5.0,
		MinAnomalyGroup:          3,
		TrendThresholdPct:        5.0,
		VolatilityThresholdPct:   20.0,
		SignificanceThresholdPct: 10.0,
		MinForecastPoints:        3,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
