// Package config loads client settings from an optional YAML file and the
// environment. It is read once at startup and treated as immutable.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"seteuk/internal/domain"
)

// Store kinds accepted by Store.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config holds every setting the client needs.
type Config struct {
	// Backend
	APIURL    string        `yaml:"api_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`

	// Session persistence
	Store         string        `yaml:"store"`
	Namespace     string        `yaml:"namespace"`
	StateDir      string        `yaml:"state_dir"`
	Passphrase    string        `yaml:"-"`
	DatabaseURL   string        `yaml:"database_url"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`

	// Observability
	MetricsFile string `yaml:"metrics_file"`
	LogFormat   string `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:    "http://localhost:8000",
		Timeout:   60 * time.Second,
		RateLimit: 2,
		RateBurst: 4,
		Store:     StoreFile,
		Namespace: domain.DefaultNamespace,
		StateDir:  defaultStateDir(),
		RedisAddr: "localhost:6379",
		LogFormat: "text",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.APIURL = getEnvString("SETEUK_API_URL", cfg.APIURL)
	cfg.Timeout = getEnvDuration("SETEUK_TIMEOUT", cfg.Timeout)
	cfg.RateLimit = getEnvFloat("SETEUK_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = getEnvInt("SETEUK_RATE_BURST", cfg.RateBurst)
	cfg.Store = getEnvString("SETEUK_STORE", cfg.Store)
	cfg.Namespace = getEnvString("SETEUK_NAMESPACE", cfg.Namespace)
	cfg.StateDir = getEnvString("SETEUK_STATE_DIR", cfg.StateDir)
	cfg.Passphrase = getEnvString("SETEUK_PASSPHRASE", cfg.Passphrase)
	cfg.DatabaseURL = getEnvString("SETEUK_DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getEnvString("SETEUK_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvString("SETEUK_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("SETEUK_REDIS_DB", cfg.RedisDB)
	cfg.RedisTTL = getEnvDuration("SETEUK_REDIS_TTL", cfg.RedisTTL)
	cfg.MetricsFile = getEnvString("SETEUK_METRICS_FILE", cfg.MetricsFile)
	cfg.LogFormat = getEnvString("SETEUK_LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []error

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL))
	}
	if c.Timeout <= 0 {
		problems = append(problems, errors.New("timeout must be positive"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		problems = append(problems, errors.New("rate_limit and rate_burst must be positive"))
	}
	if c.Namespace == "" {
		problems = append(problems, errors.New("namespace is required"))
	}
	switch c.Store {
	case StoreFile, StoreSQLite:
		if c.StateDir == "" {
			problems = append(problems, fmt.Errorf("state_dir is required for store %q", c.Store))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("database_url is required for store \"postgres\""))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, errors.New("redis_addr is required for store \"redis\""))
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".seteuk"
	}
	return filepath.Join(dir, "seteuk")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
