package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	// Backend
	BackendURL      string        `yaml:"backend_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RateLimit       float64       `yaml:"rate_limit"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`

	// Storage
	StorageDriver string `yaml:"storage_driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`

	// Cart
	MirrorTimeout time.Duration `yaml:"mirror_timeout"`

	// Server
	HTTPPort        string        `yaml:"http_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		BackendURL:      "http://localhost:8001",
		RequestTimeout:  10 * time.Second,
		RateLimit:       20,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
		StorageDriver:   DriverSQLite,
		SQLitePath:      "storefront.db",
		RedisAddr:       "localhost:6379",
		KeyPrefix:       "mx3",
		MirrorTimeout:   5 * time.Second,
		HTTPPort:        "3000",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds the config from defaults, then the YAML file at path (if
// any), then STOREFRONT_* environment variables.
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

	cfg.BackendURL = getEnv("STOREFRONT_BACKEND_URL", cfg.BackendURL)
	cfg.RequestTimeout = getEnvDuration("STOREFRONT_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RateLimit = getEnvFloat("STOREFRONT_RATE_LIMIT", cfg.RateLimit)
	cfg.BreakerFailures = getEnvInt("STOREFRONT_BREAKER_FAILURES", cfg.BreakerFailures)
	cfg.BreakerCooldown = getEnvDuration("STOREFRONT_BREAKER_COOLDOWN", cfg.BreakerCooldown)
	cfg.StorageDriver = getEnv("STOREFRONT_STORAGE_DRIVER", cfg.StorageDriver)
	cfg.SQLitePath = getEnv("STOREFRONT_SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisAddr = getEnv("STOREFRONT_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("STOREFRONT_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("STOREFRONT_REDIS_DB", cfg.RedisDB)
	cfg.KeyPrefix = getEnv("STOREFRONT_KEY_PREFIX", cfg.KeyPrefix)
	cfg.MirrorTimeout = getEnvDuration("STOREFRONT_MIRROR_TIMEOUT", cfg.MirrorTimeout)
	cfg.HTTPPort = getEnv("STOREFRONT_HTTP_PORT", cfg.HTTPPort)
	cfg.ShutdownTimeout = getEnvDuration("STOREFRONT_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getEnv("STOREFRONT_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend url %q must be an http(s) url", c.BackendURL))
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required"))
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis addr is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}

	for name, d := range map[string]time.Duration{
		"request timeout":  c.RequestTimeout,
		"mirror timeout":   c.MirrorTimeout,
		"shutdown timeout": c.ShutdownTimeout,
		"breaker cooldown": c.BreakerCooldown,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	if c.KeyPrefix == "" {
		errs = append(errs, errors.New("key prefix is required"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
