package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ScraperConfig holds crawler configuration.
type ScraperConfig struct {
	BaseURL            string
	MaxPages           int
	Parallelism        int
	Delay              time.Duration
	RandomDelay        time.Duration
	Timeout            time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	RetryBackoffMax    time.Duration
	OutputFile         string
	OutputFormat       string // csv, json, or dual
	UserAgent          string
	Verbose            bool
	RespectRobotsTxt   bool
	ByCategory         bool
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int
	MetricsAddr        string
}

// DefaultScraperConfig returns conservative defaults for the demo target.
func DefaultScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		BaseURL:            "https://books.toscrape.com/",
		MaxPages:           1000,
		Parallelism:        16,
		Delay:              0,
		RandomDelay:        0,
		Timeout:            10 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       200 * time.Millisecond,
		RetryBackoffMax:    2 * time.Second,
		OutputFile:         "data/books.csv",
		OutputFormat:       "csv",
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:            false,
		RespectRobotsTxt:   false,
		ByCategory:         true,
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      100000,
		MetricsAddr:        "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *ScraperConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

// ServerConfig holds the API configuration. It is built once at startup and
// passed to every component.
type ServerConfig struct {
	Addr        string
	APIPrefix   string
	DataPath    string
	MetricsPath string

	Username string
	Password string

	JWTSecret    string
	JWTAlgorithm string
	TokenTTL     time.Duration

	DefaultListLimit     int
	MaxListLimit         int
	DefaultTopRatedLimit int
	MaxTopRatedLimit     int

	CORSAllowedOrigins []string
	LoginRateLimit     int
	LoginRateWindow    time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Verbose bool
}

// DefaultServerConfig returns the development defaults. JWTSecret must be
// overridden in any real deployment.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:        ":8000",
		APIPrefix:   "/api/v1",
		DataPath:    "data/books.csv",
		MetricsPath: "/metrics",

		Username: "admin",
		Password: "secret",

		JWTSecret:    "change-me",
		JWTAlgorithm: "HS256",
		TokenTTL:     30 * time.Minute,

		DefaultListLimit:     100,
		MaxListLimit:         500,
		DefaultTopRatedLimit: 10,
		MaxTopRatedLimit:     100,

		CORSAllowedOrigins: []string{"*"},
		LoginRateLimit:     10,
		LoginRateWindow:    time.Minute,

		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate ensures all configuration values are coherent.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.APIPrefix != "" && (!strings.HasPrefix(c.APIPrefix, "/") || strings.HasSuffix(c.APIPrefix, "/")) {
		return fmt.Errorf("api prefix must start with / and not end with /")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metrics path must start with /")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("auth username and password cannot be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret cannot be empty")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt algorithm must be HS256, HS384, or HS512")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.MaxListLimit <= 0 || c.DefaultListLimit <= 0 || c.DefaultListLimit > c.MaxListLimit {
		return fmt.Errorf("list limits must be positive with default <= max")
	}
	if c.MaxTopRatedLimit <= 0 || c.DefaultTopRatedLimit <= 0 || c.DefaultTopRatedLimit > c.MaxTopRatedLimit {
		return fmt.Errorf("top-rated limits must be positive with default <= max")
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("login rate limit cannot be negative")
	}
	if c.LoginRateLimit > 0 && c.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate window must be positive")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}
