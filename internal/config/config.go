package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrMissingAPIKey     = errors.New("API_KEY is required")
	ErrMissingBaseURL    = errors.New("BASE_URL is required")
	ErrMissingMongoURI   = errors.New("MONGO_URI is required")
	ErrMissingDB         = errors.New("DB_NAME is required")
	ErrMissingCollection = errors.New("COLLECTION_NAME is required")
	ErrMissingCity       = errors.New("CITY is required when SOURCE=weather")
	ErrInvalidSource     = errors.New("SOURCE must be 'otx' or 'weather'")
	ErrInvalidPageSize   = errors.New("PAGE_SIZE must be at least 1")
	ErrInvalidMaxPages   = errors.New("MAX_PAGES must be at least 1")
	ErrInvalidBatchSize  = errors.New("BATCH_SIZE must be at least 1")
	ErrInvalidRetries    = errors.New("MAX_RETRIES must be at least 1")
)

// Source identifiers.
const (
	SourceOTX     = "otx"
	SourceWeather = "weather"
)

type Config struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	MongoURI         string `yaml:"mongo_uri"`
	MongoDB          string `yaml:"mongo_db"`
	Collection       string `yaml:"collection"`
	ConnectorName    string `yaml:"connector_name"`
	Source           string `yaml:"source"`
	City             string `yaml:"city"`
	PageSize         int    `yaml:"page_size"`
	MaxPages         int    `yaml:"max_pages"`
	BatchSize        int    `yaml:"batch_size"`
	MaxRetries       int    `yaml:"max_retries"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms"`
	HTTPTimeoutSec   int    `yaml:"http_timeout_sec"`
	RatePerMinute    int    `yaml:"rate_per_minute"`
	LogLevel         string `yaml:"log_level"`
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func defaults() Config {
	return Config{
		BaseURL:          "https://otx.alienvault.com/api/v1",
		MongoURI:         "mongodb://localhost:27017",
		MongoDB:          "api_testing",
		Collection:       "otx_pulses_raw",
		ConnectorName:    "otx_pulses_connector",
		Source:           SourceOTX,
		PageSize:         50,
		MaxPages:         100,
		BatchSize:        20,
		MaxRetries:       5,
		InitialBackoffMs: 1000,
		HTTPTimeoutSec:   30,
		LogLevel:         "info",
	}
}

// Load builds the config from defaults, an optional YAML file, and the
// environment, in that order of precedence (environment wins).
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.APIKey = getenv("API_KEY", cfg.APIKey)
	cfg.BaseURL = getenv("BASE_URL", cfg.BaseURL)
	cfg.MongoURI = getenv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getenv("DB_NAME", cfg.MongoDB)
	cfg.Collection = getenv("COLLECTION_NAME", cfg.Collection)
	cfg.ConnectorName = getenv("CONNECTOR_NAME", cfg.ConnectorName)
	cfg.Source = getenv("SOURCE", cfg.Source)
	cfg.City = getenv("CITY", cfg.City)
	cfg.PageSize = getenvInt("PAGE_SIZE", cfg.PageSize)
	cfg.MaxPages = getenvInt("MAX_PAGES", cfg.MaxPages)
	cfg.BatchSize = getenvInt("BATCH_SIZE", cfg.BatchSize)
	cfg.MaxRetries = getenvInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.InitialBackoffMs = getenvInt("INITIAL_BACKOFF_MS", cfg.InitialBackoffMs)
	cfg.HTTPTimeoutSec = getenvInt("HTTP_TIMEOUT_SEC", cfg.HTTPTimeoutSec)
	cfg.RatePerMinute = getenvInt("RATE_PER_MINUTE", cfg.RatePerMinute)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

// Validate checks all required settings before any I/O happens.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.MongoURI == "" {
		return ErrMissingMongoURI
	}
	if c.MongoDB == "" {
		return ErrMissingDB
	}
	if c.Collection == "" {
		return ErrMissingCollection
	}
	switch c.Source {
	case SourceOTX:
	case SourceWeather:
		if c.City == "" {
			return ErrMissingCity
		}
	default:
		return ErrInvalidSource
	}
	if c.PageSize < 1 {
		return ErrInvalidPageSize
	}
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if c.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	if c.MaxRetries < 1 {
		return ErrInvalidRetries
	}
	return nil
}

// InitialBackoff returns the first retry delay.
func (c Config) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond
}

// HTTPTimeout returns the per-request socket timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}
