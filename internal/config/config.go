// Package config provides configuration loading and validation for the client and server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/job-board-client/internal/schemas"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var configValidator = schemas.MustCompile("config", schemas.ConfigSchema)

// Duration is a time.Duration written as a Go duration string in JSON ("30s", "168h").
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config represents the client configuration. Values come from the environment
// and, optionally, a JSON file; the environment wins.
type Config struct {
	// Remote API
	APIURL      string   `json:"api_url,omitempty"`      // Base URL of the job board API
	HTTPTimeout Duration `json:"http_timeout,omitempty"` // Per-request timeout

	// Storage
	StorageBackend string `json:"storage_backend,omitempty"` // memory, redis or postgres
	StorageProfile string `json:"storage_profile,omitempty"` // Browser profile the CLI acts as
	RedisURL       string `json:"redis_url,omitempty"`
	DatabaseURL    string `json:"database_url,omitempty"`

	// Session
	BroadcastChannel  string   `json:"broadcast_channel,omitempty"`
	TokenCookieMaxAge Duration `json:"token_cookie_max_age,omitempty"`
	RevalidateSpec    string   `json:"revalidate_spec,omitempty"`  // cron spec for session revalidation
	SessionIdleTTL    Duration `json:"session_idle_ttl,omitempty"` // Server sessions unused this long are dropped
	JWTSecret         string   `json:"-"`                          // Enables verified claim decoding

	// Views
	PageSize int `json:"page_size,omitempty"`

	// Server
	ListenAddr string `json:"listen_addr,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:            "http://localhost:8000/api/v1",
		HTTPTimeout:       Duration(30 * time.Second),
		StorageBackend:    BackendMemory,
		StorageProfile:    "default",
		BroadcastChannel:  "auth_channel",
		TokenCookieMaxAge: Duration(7 * 24 * time.Hour),
		RevalidateSpec:    "@every 5m",
		SessionIdleTTL:    Duration(30 * time.Minute),
		PageSize:          10,
		ListenAddr:        ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load builds the configuration: environment first, then the optional file at
// path, then defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	merged := *cfg
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		merged = merged.MergeWithDefaults(*file)
	}
	merged = merged.MergeWithDefaults(Defaults())

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// FromEnv reads the configuration variables that are set. Unset variables
// leave zero values.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIURL:           os.Getenv("JOBBOARD_API_URL"),
		StorageBackend:   os.Getenv("STORAGE_BACKEND"),
		StorageProfile:   os.Getenv("STORAGE_PROFILE"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		BroadcastChannel: os.Getenv("BROADCAST_CHANNEL"),
		RevalidateSpec:   os.Getenv("REVALIDATE_SPEC"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
	}

	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PAGE_SIZE: %v", err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("TOKEN_COOKIE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_COOKIE_MAX_AGE: %v", err)
		}
		cfg.TokenCookieMaxAge = Duration(d)
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %v", err)
		}
		cfg.SessionIdleTTL = Duration(d)
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %v", err)
		}
		cfg.HTTPTimeout = Duration(d)
	}
	return cfg, nil
}

// LoadFile loads configuration from a JSON file checked against schemas.ConfigSchema.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := configValidator.Validate(string(data)); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config error: 'api_url' must be an absolute URL, got %q", c.APIURL)
	}

	switch c.StorageBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config error: unknown storage backend %q", c.StorageBackend)
	}

	if c.PageSize < 1 {
		return fmt.Errorf("config error: 'page_size' must be positive")
	}
	if c.TokenCookieMaxAge <= 0 {
		return fmt.Errorf("config error: 'token_cookie_max_age' must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("config error: 'session_idle_ttl' must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config error: 'http_timeout' must be positive")
	}
	if c.BroadcastChannel == "" {
		return fmt.Errorf("config error: 'broadcast_channel' is empty")
	}
	if _, err := cron.ParseStandard(c.RevalidateSpec); err != nil {
		return fmt.Errorf("config error: invalid 'revalidate_spec': %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config error: 'log_format' must be text or json")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.HTTPTimeout == 0 {
		result.HTTPTimeout = defaults.HTTPTimeout
	}
	if result.StorageBackend == "" {
		result.StorageBackend = defaults.StorageBackend
	}
	if result.StorageProfile == "" {
		result.StorageProfile = defaults.StorageProfile
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.BroadcastChannel == "" {
		result.BroadcastChannel = defaults.BroadcastChannel
	}
	if result.TokenCookieMaxAge == 0 {
		result.TokenCookieMaxAge = defaults.TokenCookieMaxAge
	}
	if result.RevalidateSpec == "" {
		result.RevalidateSpec = defaults.RevalidateSpec
	}
	if result.SessionIdleTTL == 0 {
		result.SessionIdleTTL = defaults.SessionIdleTTL
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.PageSize == 0 {
		result.PageSize = defaults.PageSize
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	return result
}
