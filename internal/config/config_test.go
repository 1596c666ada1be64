package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_ADDR", "CIVIC_ACCESS_TTL_SECONDS", "CIVIC_CHAT_DELAY_MS", "REDIS_URL", "DATABASE_URL", "MEILI_URL", "MINIO_ENDPOINT", "MINIO_USE_SSL", "SMTP_HOST", "CIVIC_NOTIFY_EMAILS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8787" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL = %s", cfg.AccessTTL)
	}
	if cfg.ChatDelay != 800*time.Millisecond {
		t.Fatalf("ChatDelay = %s", cfg.ChatDelay)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" || cfg.MeiliURL != "" || cfg.MinioEndpoint != "" {
		t.Fatalf("optional backends should be disabled by default: %+v", cfg)
	}
	if cfg.MinioUseSSL {
		t.Fatal("MinioUseSSL should default to false")
	}
	if cfg.SMTPHost != "" || cfg.NotifyEmails != nil {
		t.Fatalf("notifications should be disabled by default: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("CIVIC_REFRESH_TTL_SECONDS", "60")
	t.Setenv("CIVIC_CHAT_DELAY_MS", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("CIVIC_NOTIFY_EMAILS", " ward12@example.com, ,roads@example.com ")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.RefreshTTL != time.Minute {
		t.Fatalf("RefreshTTL = %s", cfg.RefreshTTL)
	}
	if cfg.ChatDelay != 800*time.Millisecond {
		t.Fatalf("ChatDelay should fall back on bad input, got %s", cfg.ChatDelay)
	}
	if !cfg.MinioUseSSL || cfg.RedisURL != "redis://cache:6379/1" {
		t.Fatalf("Load() = %+v", cfg)
	}
	if len(cfg.NotifyEmails) != 2 || cfg.NotifyEmails[1] != "roads@example.com" {
		t.Fatalf("NotifyEmails = %q", cfg.NotifyEmails)
	}
}
