package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string
	DataDir         string // storage root for resources and logos
	TempDir         string // branded artifacts and archives
	BaseURL         string
	AdminKeyHash    string // bcrypt hash of the admin bearer key
	MaxUploadBytes  int64
	ExportWorkers   int
	FontPath        string
	LogLevel        string
	JPEGQuality     int
	CleanupSchedule string
	TempMaxAgeMins  int
	DiskMinFreePct  float64
	RateLimitPerMin int
	TrustProxy      bool // honour X-Forwarded-For / X-Real-IP from a reverse proxy
}

// Load reads the environment. A .env file in the working directory, or the
// file named by ENV_FILE, is applied first without overriding variables that
// are already set.
func Load() *Config {
	envFile := envOr("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("env file not loaded", "file", envFile, "error", err)
	}

	dataDir := envOr("DATA_DIR", "./data")
	return &Config{
		ListenAddr:      envOr("LISTEN_ADDR", ":8080"),
		DataDir:         dataDir,
		TempDir:         envOr("TEMP_DIR", filepath.Join(dataDir, "tmp")),
		BaseURL:         envOr("BASE_URL", "http://localhost:8080"),
		AdminKeyHash:    envOr("ADMIN_KEY_HASH", ""),
		MaxUploadBytes:  envInt64Or("MAX_UPLOAD_BYTES", 100*1024*1024),
		ExportWorkers:   envIntOr("EXPORT_WORKERS", 4),
		FontPath:        envOr("FONT_PATH", ""),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		JPEGQuality:     envIntOr("JPEG_QUALITY", 92),
		CleanupSchedule: envOr("CLEANUP_SCHEDULE", "@every 15m"),
		TempMaxAgeMins:  envIntOr("TEMP_MAX_AGE_MINS", 60),
		DiskMinFreePct:  envFloatOr("DISK_MIN_FREE_PCT", 5),
		RateLimitPerMin: envIntOr("RATE_LIMIT_PER_MIN", 60),
		TrustProxy:      envBoolOr("TRUST_PROXY", false),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
