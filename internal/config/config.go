package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for task lists.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken     string        `yaml:"telegram_token"`
	DatabaseURL       string        `yaml:"database_url"`
	StorageBackend    string        `yaml:"storage_backend"`
	StorageKey        string        `yaml:"storage_key"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	RedisDB           int           `yaml:"redis_db"`
	DefaultCategories []string      `yaml:"default_categories"`
	ReportInterval    time.Duration `yaml:"report_interval"`
	ReportAt          string        `yaml:"report_at"`
}

// Load reads the optional YAML file named by CONFIG_FILE, then applies
// environment variables on top, then defaults.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	setString(&cfg.TelegramToken, getenv("TELEGRAM_TOKEN"))
	setString(&cfg.DatabaseURL, getenv("DATABASE_URL"))
	setString(&cfg.StorageBackend, getenv("STORAGE_BACKEND"))
	setString(&cfg.StorageKey, getenv("STORAGE_KEY"))
	setString(&cfg.RedisAddr, getenv("REDIS_ADDR"))
	setString(&cfg.RedisPassword, getenv("REDIS_PASSWORD"))
	setString(&cfg.ReportAt, getenv("REPORT_AT"))

	if raw := strings.TrimSpace(getenv("REDIS_DB")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("REDIS_DB must be a non-negative integer")
		}
		cfg.RedisDB = n
	}
	if raw := strings.TrimSpace(getenv("DEFAULT_CATEGORIES")); raw != "" {
		cfg.DefaultCategories = splitList(raw)
	}
	if d := parseInterval(strings.TrimSpace(getenv("REPORT_INTERVAL_HOURS"))); d > 0 {
		cfg.ReportInterval = d
	}

	applyDefaults(&cfg)

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	switch cfg.StorageBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return cfg, fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return cfg, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = BackendSQLite
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "todo_board.db"
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "tasks"
	}
	if len(cfg.DefaultCategories) == 0 {
		cfg.DefaultCategories = []string{"personal", "work", "shopping"}
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 5 * time.Hour
	}
}

func setString(dst *string, raw string) {
	if v := strings.TrimSpace(raw); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
