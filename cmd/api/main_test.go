package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv keeps the host's backend settings out of config.Load.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REDIS_URL", "DATABASE_URL", "MEILI_URL", "MINIO_ENDPOINT", "SMTP_HOST", "CIVIC_SEED_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("API_ADDR", "127.0.0.1:0")
}

func TestRunReturnsSeedError(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CIVIC_SEED_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	err := run()
	if err == nil || !strings.Contains(err.Error(), "seed data") {
		t.Fatalf("run() error = %v, want a seed data error", err)
	}
}

func TestRunReturnsBootstrapError(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "issues:\n  - id: 1\n    title: Broken bench\n    category: Vandalism\n    status: Open\n"
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	t.Setenv("CIVIC_SEED_FILE", path)

	err := run()
	if err == nil || !strings.Contains(err.Error(), "bootstrap") {
		t.Fatalf("run() error = %v, want a bootstrap error", err)
	}
}

func TestBuildOptionsReportsBackendErrors(t *testing.T) {
	isolateEnv(t)
	t.Setenv("REDIS_URL", "not-a-redis-url")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "redis connection") {
		t.Fatalf("run() error = %v, want a redis connection error", err)
	}
}
