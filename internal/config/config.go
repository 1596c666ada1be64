package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr       string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CORSOrigin string
	BcryptCost int
	// SeedFile overrides the embedded demo dataset when set.
	SeedFile  string
	ChatDelay time.Duration
	// ChromePath pins the browser used for PDF reports; PATH is searched when empty.
	ChromePath string
	// Redis - sessions are kept in process when empty
	RedisURL string
	// Postgres audit trail - disabled when empty
	DatabaseURL   string
	MigrationsDir string
	// Meilisearch - in-memory search when empty
	MeiliURL       string
	MeiliMasterKey string
	// MinIO - images stay inline data URLs when empty
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	// SMTP moderator notifications - disabled unless host, sender and recipients are set
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	NotifyEmails []string
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8787"),
		JWTSecret:      getenv("CIVIC_JWT_SECRET", "civicvoice-dev-secret"),
		AccessTTL:      time.Duration(getenvInt("CIVIC_ACCESS_TTL_SECONDS", 900)) * time.Second,
		RefreshTTL:     time.Duration(getenvInt("CIVIC_REFRESH_TTL_SECONDS", 604800)) * time.Second,
		CORSOrigin:     getenv("CIVIC_CORS_ORIGIN", "*"),
		BcryptCost:     getenvInt("CIVIC_BCRYPT_COST", 0),
		SeedFile:       getenv("CIVIC_SEED_FILE", ""),
		ChatDelay:      time.Duration(getenvInt("CIVIC_CHAT_DELAY_MS", 800)) * time.Millisecond,
		ChromePath:     getenv("CHROME_PATH", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		MigrationsDir:  getenv("CIVIC_MIGRATIONS_DIR", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "civicvoice-images"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getenv("MINIO_PUBLIC_URL", ""),
		SMTPHost:       getenv("SMTP_HOST", ""),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SMTPUsername:   getenv("SMTP_USERNAME", ""),
		SMTPPassword:   getenv("SMTP_PASSWORD", ""),
		SMTPFrom:       getenv("SMTP_FROM", ""),
		NotifyEmails:   getenvList("CIVIC_NOTIFY_EMAILS"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvList splits a comma-separated variable, dropping blanks.
func getenvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
