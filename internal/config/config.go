// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultAPIURL             = "http://localhost:8000/api/v1"
	DefaultUploadsURL         = "http://localhost:8000/uploads"
	DefaultRequestTimeout     = 30 * time.Second
	DefaultCacheGCTime        = 5 * time.Minute
	DefaultCacheGCSchedule    = "@every 1m"
	DefaultDraftRetention     = 30 * 24 * time.Hour
	DefaultDraftPruneSchedule = "@daily"
	defaultDataDirName        = ".tradejournal"
	draftsDatabaseName        = "drafts"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for the local drafts database (always absolute)
	APIURL             string
	UploadsURL         string
	RequestTimeout     time.Duration
	MaxAttachmentBytes int64
	AllowedMediaTypes  []string
	CacheGCTime        time.Duration
	CacheGCSchedule    string
	DraftRetention     time.Duration
	DraftPruneSchedule string
	LogLevel           string
	DevMode            bool
}

// Load reads configuration from a .env file, if present, and the
// environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TJ_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, defaultDataDirName)
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		APIURL:             strings.TrimRight(getEnv("TJ_API_URL", DefaultAPIURL), "/"),
		UploadsURL:         strings.TrimRight(getEnv("TJ_UPLOADS_URL", DefaultUploadsURL), "/"),
		RequestTimeout:     getEnvAsDuration("TJ_REQUEST_TIMEOUT", DefaultRequestTimeout),
		MaxAttachmentBytes: getEnvAsInt64("TJ_MAX_ATTACHMENT_BYTES", attachments.DefaultMaxBytes),
		AllowedMediaTypes:  getEnvAsList("TJ_ALLOWED_MEDIA_TYPES", attachments.DefaultAllowedTypes),
		CacheGCTime:        getEnvAsDuration("TJ_CACHE_GC_TIME", DefaultCacheGCTime),
		CacheGCSchedule:    getEnv("TJ_CACHE_GC_SCHEDULE", DefaultCacheGCSchedule),
		DraftRetention:     getEnvAsDuration("TJ_DRAFT_RETENTION", DefaultDraftRetention),
		DraftPruneSchedule: getEnv("TJ_DRAFT_PRUNE_SCHEDULE", DefaultDraftPruneSchedule),
		LogLevel:           getEnv("LOG_LEVEL", "warn"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks URLs and limits
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"TJ_API_URL": c.APIURL, "TJ_UPLOADS_URL": c.UploadsURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("TJ_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("TJ_MAX_ATTACHMENT_BYTES must be positive, got %d", c.MaxAttachmentBytes)
	}
	if len(c.AllowedMediaTypes) == 0 {
		return fmt.Errorf("TJ_ALLOWED_MEDIA_TYPES must list at least one media type")
	}
	if c.CacheGCTime <= 0 {
		return fmt.Errorf("TJ_CACHE_GC_TIME must be positive, got %s", c.CacheGCTime)
	}
	if c.DraftRetention <= 0 {
		return fmt.Errorf("TJ_DRAFT_RETENTION must be positive, got %s", c.DraftRetention)
	}
	return nil
}

// AttachmentPolicy returns the staging policy for screenshots
func (c *Config) AttachmentPolicy() attachments.Policy {
	return attachments.Policy{
		AllowedTypes: append([]string(nil), c.AllowedMediaTypes...),
		MaxBytes:     c.MaxAttachmentBytes,
	}
}

// DraftsDBPath is the location of the local drafts database
func (c *Config) DraftsDBPath() string {
	return filepath.Join(c.DataDir, draftsDatabaseName+".db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
