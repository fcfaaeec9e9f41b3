package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/remission-backend/internal/data/db"
	"github.com/yungbote/remission-backend/internal/platform/envutil"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"

	defaultJWTSecret = "jwtsecretkey"
)

type DatabaseConfig struct {
	Driver        string        `yaml:"driver"`
	URL           string        `yaml:"url"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	SSLMode       string        `yaml:"sslmode"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

func (d DatabaseConfig) DB() db.Config {
	return db.Config{
		Driver:        d.Driver,
		URL:           d.URL,
		Host:          d.Host,
		Port:          d.Port,
		User:          d.User,
		Password:      d.Password,
		Name:          d.Name,
		SSLMode:       d.SSLMode,
		SlowThreshold: d.SlowThreshold,
	}
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type TrendConfig struct {
	Cron        string        `yaml:"cron"`
	Window      int           `yaml:"window"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ModelConfig struct {
	Name   string `yaml:"name"`
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"gcs_bucket"`
	Prefix string `yaml:"gcs_prefix"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	ScrapeInterval time.Duration `yaml:"scrape_interval"`
	OtelEnabled    bool          `yaml:"otel_enabled"`
	OtelEndpoint   string        `yaml:"otel_endpoint"`
	OtelHeaders    string        `yaml:"otel_headers"`
	OtelInsecure   bool          `yaml:"otel_insecure"`
	OtelSampler    float64       `yaml:"otel_sampler_ratio"`
}

type Config struct {
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`
	Version string `yaml:"version"`

	Database DatabaseConfig `yaml:"database"`

	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	AuthRequired   bool          `yaml:"auth_required"`

	Redis         RedisConfig         `yaml:"redis"`
	Trends        TrendConfig         `yaml:"trends"`
	Model         ModelConfig         `yaml:"model"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	CORSOrigins   []string            `yaml:"cors_origins"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DefaultConfig returns the profile defaults for env. Unknown profiles fall
// back to development.
func DefaultConfig(env string) Config {
	cfg := Config{
		Env:     EnvDevelopment,
		Port:    "5000",
		LogMode: "development",
		Version: "dev",
		Database: DatabaseConfig{
			Driver:        db.DriverSQLite,
			URL:           "database/remission_dev.db",
			SSLMode:       "disable",
			SlowThreshold: 200 * time.Millisecond,
		},
		JWTSecretKey:   defaultJWTSecret,
		AccessTokenTTL: time.Hour,
		Redis:          RedisConfig{Prefix: "remission", TTL: 10 * time.Minute},
		Trends:         TrendConfig{Cron: "@daily", Window: 5, Concurrency: 4, Timeout: 10 * time.Minute},
		Model:          ModelConfig{Name: "flare", Dir: "models", Prefix: "models"},
		RateLimit:      RateLimitConfig{RPS: 5, Burst: 10},
		Observability:  ObservabilityConfig{ScrapeInterval: 10 * time.Second, OtelSampler: 0.1},
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvTesting:
		cfg.Env = EnvTesting
		cfg.Database.URL = ":memory:"
		cfg.AccessTokenTTL = 5 * time.Minute
		cfg.Trends.Cron = ""
		cfg.RateLimit.RPS = 0
	case EnvProduction:
		cfg.Env = EnvProduction
		cfg.LogMode = "production"
		cfg.Database.URL = db.DefaultSQLitePath
	}
	return cfg
}

// LoadConfig layers profile defaults, the optional CONFIG_FILE and then
// environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := DefaultConfig(envutil.String("APP_ENV", EnvDevelopment, log))
	if path := envutil.String("CONFIG_FILE", "", log); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv(log)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(log *logger.Logger) {
	c.Port = envutil.String("PORT", c.Port, log)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode, log)
	c.Version = envutil.String("APP_VERSION", c.Version, log)

	c.Database.Driver = envutil.String("DB_DRIVER", c.Database.Driver, log)
	c.Database.URL = envutil.String("DATABASE_URL", c.Database.URL, log)
	c.Database.Host = envutil.String("POSTGRES_HOST", c.Database.Host, log)
	c.Database.Port = envutil.String("POSTGRES_PORT", c.Database.Port, log)
	c.Database.User = envutil.String("POSTGRES_USER", c.Database.User, log)
	c.Database.Password = envutil.String("POSTGRES_PASSWORD", c.Database.Password, log)
	c.Database.Name = envutil.String("POSTGRES_NAME", c.Database.Name, log)
	c.Database.SSLMode = envutil.String("POSTGRES_SSLMODE", c.Database.SSLMode, log)

	c.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.JWTSecretKey, log)
	c.AccessTokenTTL = envutil.Seconds("ACCESS_TOKEN_TTL", c.AccessTokenTTL, log)
	c.AuthRequired = envutil.Bool("AUTH_REQUIRED", c.AuthRequired, log)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr, log)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password, log)
	c.Redis.DB = envutil.Int("REDIS_DB", c.Redis.DB, log)
	c.Redis.TTL = envutil.Seconds("ANALYSIS_CACHE_TTL", c.Redis.TTL, log)

	// TREND_CRON may be set to an empty value to disable the scheduler.
	if v, ok := os.LookupEnv("TREND_CRON"); ok {
		c.Trends.Cron = strings.TrimSpace(v)
	}
	c.Trends.Window = envutil.Int("TREND_WINDOW", c.Trends.Window, log)
	c.Trends.Concurrency = envutil.Int("TREND_CONCURRENCY", c.Trends.Concurrency, log)
	c.Trends.Timeout = envutil.Seconds("TREND_TIMEOUT", c.Trends.Timeout, log)

	c.Model.Name = envutil.String("MODEL_NAME", c.Model.Name, log)
	c.Model.Dir = envutil.String("MODEL_DIR", c.Model.Dir, log)
	c.Model.Bucket = envutil.String("MODEL_GCS_BUCKET_NAME", c.Model.Bucket, log)
	c.Model.Prefix = envutil.String("MODEL_GCS_PREFIX", c.Model.Prefix, log)

	c.RateLimit.RPS = envutil.Float("RATE_LIMIT_RPS", c.RateLimit.RPS, log)
	c.RateLimit.Burst = envutil.Int("RATE_LIMIT_BURST", c.RateLimit.Burst, log)
	c.CORSOrigins = envutil.List("CORS_ORIGINS", c.CORSOrigins, log)

	c.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", c.Observability.MetricsEnabled, log)
	c.Observability.ScrapeInterval = envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", c.Observability.ScrapeInterval, log)
	c.Observability.OtelEnabled = envutil.Bool("OTEL_ENABLED", c.Observability.OtelEnabled, log)
	c.Observability.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Observability.OtelEndpoint, log)
	c.Observability.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Observability.OtelHeaders, log)
	c.Observability.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Observability.OtelInsecure, log)
	c.Observability.OtelSampler = envutil.Float("OTEL_SAMPLER_RATIO", c.Observability.OtelSampler, log)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.Database.Driver))
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.Env == EnvProduction && c.JWTSecretKey == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET_KEY must be changed in production"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Trends.Window <= 0 {
		errs = append(errs, errors.New("TREND_WINDOW must be positive"))
	}
	if c.Trends.Concurrency <= 0 {
		errs = append(errs, errors.New("TREND_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}
