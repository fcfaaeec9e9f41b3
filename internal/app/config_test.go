package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/remission-backend/internal/platform/logger"
)

func TestDefaultConfigProfiles(t *testing.T) {
	cases := []struct {
		env     string
		wantEnv string
		dbURL   string
		ttl     time.Duration
		cron    string
	}{
		{env: "", wantEnv: EnvDevelopment, dbURL: "database/remission_dev.db", ttl: time.Hour, cron: "@daily"},
		{env: "testing", wantEnv: EnvTesting, dbURL: ":memory:", ttl: 5 * time.Minute, cron: ""},
		{env: "Production", wantEnv: EnvProduction, dbURL: "database/remission.db", ttl: time.Hour, cron: "@daily"},
		{env: "staging", wantEnv: EnvDevelopment, dbURL: "database/remission_dev.db", ttl: time.Hour, cron: "@daily"},
	}
	for _, tc := range cases {
		t.Run(tc.wantEnv+"/"+tc.env, func(t *testing.T) {
			cfg := DefaultConfig(tc.env)
			if cfg.Env != tc.wantEnv || cfg.Database.URL != tc.dbURL || cfg.AccessTokenTTL != tc.ttl || cfg.Trends.Cron != tc.cron {
				t.Fatalf("profile %q: %+v", tc.env, cfg)
			}
		})
	}
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remission.yaml")
	yml := strings.Join([]string{
		"port: \"8080\"",
		"database:",
		"  driver: postgres",
		"  url: postgres://file@db/remission",
		"redis:",
		"  addr: redis:6379",
		"  ttl: 30s",
		"trends:",
		"  window: 7",
		"cors_origins: [\"https://app.example\"]",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_ENV", "development")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env@db/remission")
	t.Setenv("TREND_CRON", "")
	t.Setenv("ACCESS_TOKEN_TTL", "120")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.Database.Driver != "postgres" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Database.URL != "postgres://env@db/remission" {
		t.Fatalf("env should override file: %s", cfg.Database.URL)
	}
	if cfg.Redis.TTL != 30*time.Second || cfg.Redis.Prefix != "remission" {
		t.Fatalf("redis: %+v", cfg.Redis)
	}
	if cfg.Trends.Window != 7 || cfg.Trends.Concurrency != 4 || cfg.Trends.Cron != "" {
		t.Fatalf("trends: %+v", cfg.Trends)
	}
	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("ttl: %v", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig(EnvProduction)
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "changed in production") {
		t.Fatalf("want default secret rejected in production, got %v", err)
	}
	cfg.JWTSecretKey = "s3cr3t"
	cfg.Database.Driver = "mysql"
	cfg.Trends.Window = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_DRIVER") || !strings.Contains(err.Error(), "TREND_WINDOW") {
		t.Fatalf("want all problems reported, got %v", err)
	}
	if err := DefaultConfig(EnvTesting).Validate(); err != nil {
		t.Fatalf("testing profile: %v", err)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("want parse error")
	}
}
