package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bnema/audiochunk/internal/domain"
)

const (
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
)

type Config struct {
	Port            int
	DataDir         string
	UploadDir       string
	ResultDir       string
	TempDir         string
	JobStore        string
	LogLevel        string
	MaxConcurrent   int
	ChunkSizeMB     int
	Bitrate         domain.Bitrate
	MaxUploadSizeMB int
	// DownloadTimeout bounds connecting and waiting for response headers.
	DownloadTimeout time.Duration
	// JobTimeout bounds a whole pipeline run; zero means no limit.
	JobTimeout       time.Duration
	ResultRetention  time.Duration
	CleanupInterval  time.Duration
	RateLimitPerHour int
	AllowedOrigins   []string
	FFmpegPath       string
	FFprobePath      string
}

// MaxUploadBytes is the request size limit for uploads and downloads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory fill in anything not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	var errs []error
	atoi := func(key, def string) int {
		n, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return n
	}

	cfg := &Config{
		Port:             atoi("PORT", "7890"),
		DataDir:          getEnv("DATA_DIR", "/data"),
		JobStore:         strings.ToLower(getEnv("JOB_STORE", StoreSQLite)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MaxConcurrent:    atoi("MAX_CONCURRENT_CONVERSIONS", "3"),
		ChunkSizeMB:      atoi("DEFAULT_CHUNK_SIZE_MB", "25"),
		MaxUploadSizeMB:  atoi("MAX_UPLOAD_SIZE_MB", "1000"),
		DownloadTimeout:  time.Duration(atoi("DOWNLOAD_TIMEOUT_SECONDS", "30")) * time.Second,
		JobTimeout:       time.Duration(atoi("JOB_TIMEOUT_MINUTES", "0")) * time.Minute,
		ResultRetention:  time.Duration(atoi("RESULT_RETENTION_HOURS", "24")) * time.Hour,
		CleanupInterval:  time.Duration(atoi("CLEANUP_INTERVAL_MINUTES", "60")) * time.Minute,
		RateLimitPerHour: atoi("RATE_LIMIT_PER_HOUR", "100"),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
	}
	cfg.UploadDir = getEnv("UPLOAD_DIR", filepath.Join(cfg.DataDir, "uploads"))
	cfg.ResultDir = getEnv("RESULT_DIR", filepath.Join(cfg.DataDir, "results"))
	cfg.TempDir = getEnv("TEMP_DIR", filepath.Join(cfg.DataDir, "temp"))

	bitrate, err := domain.ParseBitrate(getEnv("DEFAULT_BITRATE", string(domain.Bitrate192k)))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_BITRATE: %w", err))
	}
	cfg.Bitrate = bitrate

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid PORT: %d out of range", c.Port)
	case c.MaxConcurrent < 1:
		return fmt.Errorf("invalid MAX_CONCURRENT_CONVERSIONS: must be at least 1")
	case c.ChunkSizeMB < domain.MinChunkSizeMB || c.ChunkSizeMB > domain.MaxChunkSizeMB:
		return fmt.Errorf("invalid DEFAULT_CHUNK_SIZE_MB: must be between %d and %d", domain.MinChunkSizeMB, domain.MaxChunkSizeMB)
	case c.MaxUploadSizeMB < 1:
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: must be positive")
	case c.DownloadTimeout <= 0:
		return fmt.Errorf("invalid DOWNLOAD_TIMEOUT_SECONDS: must be positive")
	case c.JobTimeout < 0:
		return fmt.Errorf("invalid JOB_TIMEOUT_MINUTES: must not be negative")
	case c.ResultRetention <= 0:
		return fmt.Errorf("invalid RESULT_RETENTION_HOURS: must be positive")
	case c.CleanupInterval <= 0:
		return fmt.Errorf("invalid CLEANUP_INTERVAL_MINUTES: must be positive")
	case c.JobStore != StoreSQLite && c.JobStore != StoreJSON:
		return fmt.Errorf("invalid JOB_STORE %q: want %s or %s", c.JobStore, StoreSQLite, StoreJSON)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
