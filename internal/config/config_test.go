package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := defaults()
	cfg.APIKey = "test-key"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "https://otx.alienvault.com/api/v1" {
		t.Errorf("BaseURL = %s", cfg.BaseURL)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.BatchSize != 20 {
		t.Errorf("BatchSize = %d, want 20", cfg.BatchSize)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.Source != SourceOTX {
		t.Errorf("Source = %s, want %s", cfg.Source, SourceOTX)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("API_KEY", "from-env")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("CITY", "Chennai")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %s", cfg.APIKey)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.City != "Chennai" {
		t.Errorf("City = %s", cfg.City)
	}
}

func TestLoadYAMLFileEnvWins(t *testing.T) {
	t.Setenv("PAGE_SIZE", "7")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_key: yaml-key\npage_size: 25\nbatch_size: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIKey != "yaml-key" {
		t.Errorf("APIKey = %s, want yaml-key", cfg.APIKey)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	// env must override the file value
	if cfg.PageSize != 7 {
		t.Errorf("PageSize = %d, want 7", cfg.PageSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing api key", func(c *Config) { c.APIKey = "" }, ErrMissingAPIKey},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, ErrMissingBaseURL},
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }, ErrMissingMongoURI},
		{"missing db", func(c *Config) { c.MongoDB = "" }, ErrMissingDB},
		{"missing collection", func(c *Config) { c.Collection = "" }, ErrMissingCollection},
		{"weather without city", func(c *Config) { c.Source = SourceWeather }, ErrMissingCity},
		{"weather with city", func(c *Config) { c.Source = SourceWeather; c.City = "Chennai" }, nil},
		{"bad source", func(c *Config) { c.Source = "ftp" }, ErrInvalidSource},
		{"bad page size", func(c *Config) { c.PageSize = 0 }, ErrInvalidPageSize},
		{"bad max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"bad batch size", func(c *Config) { c.BatchSize = -1 }, ErrInvalidBatchSize},
		{"bad retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate returned %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate returned %v, want %v", err, tt.want)
			}
		})
	}
}
