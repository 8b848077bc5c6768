package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"JOBBOARD_API_URL", "STORAGE_BACKEND", "STORAGE_PROFILE", "REDIS_URL", "DATABASE_URL",
	"BROADCAST_CHANNEL", "PAGE_SIZE", "TOKEN_COOKIE_MAX_AGE", "REVALIDATE_SPEC",
	"SESSION_IDLE_TTL", "JWT_SECRET", "HTTP_TIMEOUT", "LISTEN_ADDR", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.APIURL)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "auth_channel", cfg.BroadcastChannel)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 7*24*time.Hour, time.Duration(cfg.TokenCookieMaxAge))
	assert.Equal(t, "@every 5m", cfg.RevalidateSpec)
	assert.Equal(t, 30*time.Minute, time.Duration(cfg.SessionIdleTTL))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("JWT_SECRET", "s3cret")

	path := writeFile(t, `{
		"api_url": "https://jobs.example.test/api/v1",
		"page_size": 5,
		"http_timeout": "5s",
		"log_format": "json"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.PageSize, "env wins")
	assert.Equal(t, "https://jobs.example.test/api/v1", cfg.APIURL, "file beats defaults")
	assert.Equal(t, 5*time.Second, time.Duration(cfg.HTTPTimeout))
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PAGE_SIZE", "ten"},
		{"TOKEN_COOKIE_MAX_AGE", "7 days"},
		{"HTTP_TIMEOUT", "fast"},
		{"SESSION_IDLE_TTL", "a while"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFile_SchemaViolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", `{"max_bullets": 3}`},
		{"bad backend", `{"storage_backend": "sqlite"}`},
		{"zero page size", `{"page_size": 0}`},
		{"not json", `{ invalid json }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFile(writeFile(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	_, err := LoadFile(writeFile(t, `{"http_timeout": "soon"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadFile_FileNotFound(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_EmptyPath(t *testing.T) {
	_, err := LoadFile("")
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"relative api url", func(c *Config) { c.APIURL = "/api/v1" }, "api_url"},
		{"redis without url", func(c *Config) { c.StorageBackend = BackendRedis }, "redis_url"},
		{"postgres without url", func(c *Config) { c.StorageBackend = BackendPostgres }, "database_url"},
		{"postgres with url", func(c *Config) {
			c.StorageBackend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/jobboard"
		}, ""},
		{"unknown backend", func(c *Config) { c.StorageBackend = "sqlite" }, "unknown storage backend"},
		{"bad cron", func(c *Config) { c.RevalidateSpec = "every now and then" }, "revalidate_spec"},
		{"negative page size", func(c *Config) { c.PageSize = -1 }, "page_size"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{StorageProfile: "work", PageSize: 20}
	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, "work", merged.StorageProfile)
	assert.Equal(t, 20, merged.PageSize)
	assert.Equal(t, "auth_channel", merged.BroadcastChannel)
	assert.Equal(t, ":8080", merged.ListenAddr)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{StorageProfile: "work"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, "work", merged.StorageProfile)
	assert.Empty(t, merged.APIURL)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l, err = NewLogger("", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	_, err = NewLogger("loud", "text")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
