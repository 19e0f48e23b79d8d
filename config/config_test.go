package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestScraperConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScraperConfig)
		wantErr string
	}{
		{
			name: "negative parallelism",
			mutate: func(cfg *ScraperConfig) {
				cfg.Parallelism = -1
			},
			wantErr: "parallelism",
		},
		{
			name: "zero max pages",
			mutate: func(cfg *ScraperConfig) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *ScraperConfig) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *ScraperConfig) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *ScraperConfig) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown format",
			mutate: func(cfg *ScraperConfig) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "zero batch size",
			mutate: func(cfg *ScraperConfig) {
				cfg.BatchSize = 0
			},
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScraperConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultScraperConfigValid(t *testing.T) {
	cfg := DefaultScraperConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{name: "empty secret", mutate: func(c *ServerConfig) { c.JWTSecret = "" }, wantErr: "jwt secret"},
		{name: "bad algorithm", mutate: func(c *ServerConfig) { c.JWTAlgorithm = "RS256" }, wantErr: "jwt algorithm"},
		{name: "zero ttl", mutate: func(c *ServerConfig) { c.TokenTTL = 0 }, wantErr: "token ttl"},
		{name: "trailing slash prefix", mutate: func(c *ServerConfig) { c.APIPrefix = "/api/" }, wantErr: "api prefix"},
		{name: "default above max", mutate: func(c *ServerConfig) { c.DefaultListLimit = 600 }, wantErr: "list limits"},
		{name: "empty password", mutate: func(c *ServerConfig) { c.Password = "" }, wantErr: "password"},
		{name: "rate limit without window", mutate: func(c *ServerConfig) { c.LoginRateWindow = 0 }, wantErr: "rate window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultServerConfigValid(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	cfg.APIPrefix = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty prefix should validate, got %v", err)
	}
}

func TestApplyServerEnv(t *testing.T) {
	t.Setenv("BOOKS_CSV_PATH", "/srv/books.csv")
	t.Setenv("AUTH_USERNAME", "reader")
	t.Setenv("AUTH_PASSWORD", "hunter2")
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("AUTH_TOKEN_EXPIRE_MINUTES", "45")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("API_PREFIX", "")

	cfg := DefaultServerConfig()
	if err := ApplyServerEnv(cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}

	if cfg.DataPath != "/srv/books.csv" || cfg.Username != "reader" || cfg.Password != "hunter2" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JWTSecret != "s3cr3t" || cfg.JWTAlgorithm != "HS512" {
		t.Fatalf("jwt settings: %q %q", cfg.JWTSecret, cfg.JWTAlgorithm)
	}
	if cfg.TokenTTL != 45*time.Minute {
		t.Fatalf("ttl=%v, want 45m", cfg.TokenTTL)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("cors=%v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIPrefix != "" {
		t.Fatalf("prefix=%q, want empty", cfg.APIPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config should validate: %v", err)
	}
}

func TestApplyServerEnvInvalidInt(t *testing.T) {
	t.Setenv("JWT_EXPIRE_MINUTES", "soon")
	if err := ApplyServerEnv(DefaultServerConfig()); err == nil || !strings.Contains(err.Error(), "JWT_EXPIRE_MINUTES") {
		t.Fatalf("expected JWT_EXPIRE_MINUTES error, got %v", err)
	}
}
