// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"APP_HOST", "APP_PORT", "APP_ENV", "LOG_LEVEL",
	"DOCSTORE_DRIVER",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"SQLITE_PATH", "MONGO_URI", "MONGO_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD", "VALKEY_DB",
	"STATS_CACHE_TTL", "RECONCILE_SCHEDULE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "STRICT_TRANSITIONS",
}

// clearEnv unsets every variable Load reads. t.Setenv records the original
// value so it is restored after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	defaults := map[string][2]string{
		"Host":              {cfg.Host, "0.0.0.0"},
		"Port":              {cfg.Port, "8080"},
		"Env":               {cfg.Env, "development"},
		"LogLevel":          {cfg.LogLevel, "info"},
		"DocstoreDriver":    {cfg.DocstoreDriver, "postgres"},
		"DBHost":            {cfg.DBHost, "localhost"},
		"DBPort":            {cfg.DBPort, "5432"},
		"DBUser":            {cfg.DBUser, "quillpress"},
		"DBPassword":        {cfg.DBPassword, "changeme"},
		"DBName":            {cfg.DBName, "quillpress"},
		"SQLitePath":        {cfg.SQLitePath, "quillpress.db"},
		"MongoURI":          {cfg.MongoURI, "mongodb://localhost:27017"},
		"MongoDB":           {cfg.MongoDB, "quillpress"},
		"ValkeyHost":        {cfg.ValkeyHost, "localhost"},
		"ValkeyPort":        {cfg.ValkeyPort, "6379"},
		"ValkeyPassword":    {cfg.ValkeyPassword, ""},
		"ReconcileSchedule": {cfg.ReconcileSchedule, ""},
	}
	for field, gw := range defaults {
		if gw[0] != gw[1] {
			t.Errorf("%s: got %q, want %q", field, gw[0], gw[1])
		}
	}

	if cfg.ValkeyDB != 0 {
		t.Errorf("ValkeyDB: got %d, want 0", cfg.ValkeyDB)
	}
	if cfg.StatsCacheTTL != 30*time.Second {
		t.Errorf("StatsCacheTTL: got %v, want 30s", cfg.StatsCacheTTL)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit: got %v/%d, want 10/20", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.StrictTransitions {
		t.Error("StrictTransitions should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DOCSTORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("STATS_CACHE_TTL", "2m")
	t.Setenv("RECONCILE_SCHEDULE", "0 3 * * *")
	t.Setenv("STRICT_TRANSITIONS", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port: got %q", cfg.Port)
	}
	if cfg.DocstoreDriver != "mongo" || cfg.MongoURI != "mongodb://db:27017" {
		t.Errorf("mongo settings: got %q %q", cfg.DocstoreDriver, cfg.MongoURI)
	}
	if cfg.StatsCacheTTL != 2*time.Minute {
		t.Errorf("StatsCacheTTL: got %v", cfg.StatsCacheTTL)
	}
	if cfg.ReconcileSchedule != "0 3 * * *" {
		t.Errorf("ReconcileSchedule: got %q", cfg.ReconcileSchedule)
	}
	if !cfg.StrictTransitions {
		t.Error("StrictTransitions: expected true")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS: got %v", cfg.RateLimitRPS)
	}
}

func TestLoad_SQLite(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCSTORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/var/lib/quillpress/site.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DocstoreDriver != "sqlite" || cfg.SQLitePath != "/var/lib/quillpress/site.db" {
		t.Errorf("sqlite settings: got %q %q", cfg.DocstoreDriver, cfg.SQLitePath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"DOCSTORE_DRIVER": "couchdb"},
			wantErr: "DOCSTORE_DRIVER",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"STATS_CACHE_TTL": "soon"},
			wantErr: "parsing config",
		},
		{
			name:    "zero burst",
			env:     map[string]string{"RATE_LIMIT_BURST": "0"},
			wantErr: "RATE_LIMIT",
		},
		{
			name:    "default password in production",
			env:     map[string]string{"APP_ENV": "production"},
			wantErr: "POSTGRES_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ProductionWithPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.IsDev() {
		t.Error("production config reports IsDev")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5433", DBName: "d"}
	want := "postgres://u:p@h:5433/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: "3000"}
	if got := cfg.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Addr: got %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q): got %v, want %v", in, got, want)
		}
	}
}
