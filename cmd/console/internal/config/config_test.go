package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "ROADMAP_API_URL",
		"ROADMAP_API_TOKEN", "ROADMAP_API_TIMEOUT", "CONSOLE_JWT_SECRET", "BULK_CONCURRENCY", "HISTORY_SIZE", "VIEW_STATE_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, ":8090", cfg.GetServerAddr())
	assert.Equal(t, "http://localhost:8091/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 4, cfg.Editor.BulkConcurrency)
	assert.False(t, cfg.AuthEnabled())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_ParseErrors(t *testing.T) {
	t.Setenv("ROADMAP_API_TIMEOUT", "soon")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "ROADMAP_API_TIMEOUT")

	t.Setenv("ROADMAP_API_TIMEOUT", "")
	t.Setenv("BULK_CONCURRENCY", "many")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "BULK_CONCURRENCY")
}

func TestValidateConfig_CollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Env: "production", Port: "0"},
		Log:      LogConfig{Level: "loud", Format: "xml"},
		API:      APIConfig{BaseURL: "not a url", Timeout: 0},
		Security: SecurityConfig{JWTSecret: "short"},
		Editor:   EditorConfig{BulkConcurrency: 0, HistorySize: 0},
	}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"CONSOLE_JWT_SECRET", "PORT", "ROADMAP_API_URL", "ROADMAP_API_TIMEOUT",
		"BULK_CONCURRENCY", "HISTORY_SIZE", "LOG_LEVEL", "LOG_FORMAT"} {
		assert.Contains(t, msg, want)
	}
	assert.Equal(t, 8, strings.Count(msg, "\n  - "))
}

func TestPrintConfig_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Env: "dev", Port: "8090"},
		API:      APIConfig{BaseURL: "http://api", Token: "tok-1234567890abcd", Timeout: time.Second},
		Security: SecurityConfig{JWTSecret: "s3cr3t"},
	}
	out := cfg.PrintConfig()
	assert.NotContains(t, out, "tok-1234567890abcd")
	assert.Contains(t, out, "tok-***abcd")
	assert.Contains(t, out, "JWT Secret: ***")
	assert.Contains(t, out, "View State File: <not set>")
}
