package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	DataDir   string
	OutputDir string

	// Event detection defaults; CLI flags may override per run.
	HighLossQuantile    float64
	HighSignalThreshold float64
	ClaimsSeed          uint64

	HTTPAddr        string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox area lookup configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRPS       float64
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err := time.ParseDuration(mapboxTimeoutStr)
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxRPS, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAPBOX_RPS", "5"), 64)
	if err != nil || mapboxRPS <= 0 {
		return nil, errors.New("invalid MAPBOX_RPS: must be a positive number")
	}

	quantile, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("HIGH_LOSS_QUANTILE", "0.95"), 64)
	if err != nil || quantile <= 0 || quantile >= 1 {
		return nil, errors.New("invalid HIGH_LOSS_QUANTILE: must be between 0 and 1 exclusive")
	}

	signalThreshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("HIGH_SIGNAL_THRESHOLD", "1.0"), 64)
	if err != nil {
		return nil, errors.New("invalid HIGH_SIGNAL_THRESHOLD")
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("CLAIMS_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid CLAIMS_SEED: must be a non-negative integer")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		DataDir:   sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		OutputDir: sharedcfg.EnvOrDefault("OUTPUT_DIR", "outputs"),

		HighLossQuantile:    quantile,
		HighSignalThreshold: signalThreshold,
		ClaimsSeed:          seed,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "claims-risk-quarters"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRPS:       mapboxRPS,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
