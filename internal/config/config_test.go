package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envMap(map[string]string{"TELEGRAM_TOKEN": " token "}))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "todo_board.db", cfg.DatabaseURL)
	assert.Equal(t, "tasks", cfg.StorageKey)
	assert.Equal(t, []string{"personal", "work", "shopping"}, cfg.DefaultCategories)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Empty(t, cfg.ReportAt)
}

func TestLoad_TokenRequired(t *testing.T) {
	_, err := load(envMap(nil))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := load(envMap(map[string]string{
		"TELEGRAM_TOKEN":        "t",
		"STORAGE_BACKEND":       "Redis",
		"REDIS_ADDR":            "localhost:6379",
		"REDIS_DB":              "2",
		"DEFAULT_CATEGORIES":    "home, , errands",
		"REPORT_INTERVAL_HOURS": "3",
		"REPORT_AT":             "08:30",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"home", "errands"}, cfg.DefaultCategories)
	assert.Equal(t, 3*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "08:30", cfg.ReportAt)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"redis without addr": {"TELEGRAM_TOKEN": "t", "STORAGE_BACKEND": "redis"},
		"unknown backend":    {"TELEGRAM_TOKEN": "t", "STORAGE_BACKEND": "s3"},
		"bad redis db":       {"TELEGRAM_TOKEN": "t", "REDIS_DB": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_YAMLFileWithEnvOnTop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram_token: from-file
storage_backend: memory
storage_key: board
default_categories: [personal, study]
report_interval: 90m
`), 0o644))

	cfg, err := load(envMap(map[string]string{
		"CONFIG_FILE": path,
		"STORAGE_KEY": "override",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "override", cfg.StorageKey)
	assert.Equal(t, []string{"personal", "study"}, cfg.DefaultCategories)
	assert.Equal(t, 90*time.Minute, cfg.ReportInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(envMap(map[string]string{
		"TELEGRAM_TOKEN": "t",
		"CONFIG_FILE":    filepath.Join(t.TempDir(), "missing.yaml"),
	}))
	assert.Error(t, err)
}
