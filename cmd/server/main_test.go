package main

import (
	"testing"
	"time"

	"tasktrack/backend/internal/config"
	"tasktrack/backend/internal/database"
	"tasktrack/backend/internal/services"
)

func TestStartupConfiguration(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg == nil {
		t.Fatal("Configuration should not be nil")
	}

	pool := database.PoolConfigFromApp(cfg)
	if pool.DSN == "" {
		t.Error("Pool config should carry a DSN")
	}
	if pool.MaxOpenConns <= 0 {
		t.Error("Pool config should bound open connections")
	}

	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if tokens.TTL() != 24*time.Hour {
		t.Errorf("Expected default 24h token TTL, got %v", tokens.TTL())
	}
}
