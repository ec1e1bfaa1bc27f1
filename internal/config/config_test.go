package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"TJ_DATA_DIR", "TJ_API_URL", "TJ_UPLOADS_URL", "TJ_REQUEST_TIMEOUT",
	"TJ_MAX_ATTACHMENT_BYTES", "TJ_ALLOWED_MEDIA_TYPES", "TJ_CACHE_GC_TIME",
	"TJ_CACHE_GC_SCHEDULE", "TJ_DRAFT_RETENTION", "TJ_DRAFT_PRUNE_SCHEDULE",
	"LOG_LEVEL", "DEV_MODE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("TJ_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultUploadsURL, cfg.UploadsURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(5<<20), cfg.MaxAttachmentBytes)
	assert.Equal(t, attachments.DefaultAllowedTypes, cfg.AllowedMediaTypes)
	assert.Equal(t, 5*time.Minute, cfg.CacheGCTime)
	assert.Equal(t, "@every 1m", cfg.CacheGCSchedule)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, filepath.Join(dir, "drafts.db"), cfg.DraftsDBPath())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TJ_DATA_DIR", t.TempDir())
	t.Setenv("TJ_API_URL", "https://journal.example.com/api/v1/")
	t.Setenv("TJ_REQUEST_TIMEOUT", "45")
	t.Setenv("TJ_MAX_ATTACHMENT_BYTES", "1024")
	t.Setenv("TJ_ALLOWED_MEDIA_TYPES", "image/png, image/webp,")
	t.Setenv("TJ_CACHE_GC_TIME", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://journal.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(1024), cfg.MaxAttachmentBytes)
	assert.Equal(t, []string{"image/png", "image/webp"}, cfg.AllowedMediaTypes)
	assert.Equal(t, 90*time.Second, cfg.CacheGCTime)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)

	policy := cfg.AttachmentPolicy()
	assert.Equal(t, int64(1024), policy.MaxBytes)
	assert.Equal(t, []string{"image/png", "image/webp"}, policy.AllowedTypes)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TJ_DATA_DIR", t.TempDir())
	t.Setenv("TJ_REQUEST_TIMEOUT", "soon")
	t.Setenv("TJ_MAX_ATTACHMENT_BYTES", "big")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, attachments.DefaultMaxBytes, cfg.MaxAttachmentBytes)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIURL:             DefaultAPIURL,
			UploadsURL:         DefaultUploadsURL,
			RequestTimeout:     time.Second,
			MaxAttachmentBytes: 1,
			AllowedMediaTypes:  []string{"image/png"},
			CacheGCTime:        time.Minute,
			DraftRetention:     time.Hour,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"relative api url", func(c *Config) { c.APIURL = "/api/v1" }, "TJ_API_URL"},
		{"ftp uploads url", func(c *Config) { c.UploadsURL = "ftp://host/uploads" }, "TJ_UPLOADS_URL"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "TJ_REQUEST_TIMEOUT"},
		{"negative size", func(c *Config) { c.MaxAttachmentBytes = -1 }, "TJ_MAX_ATTACHMENT_BYTES"},
		{"no media types", func(c *Config) { c.AllowedMediaTypes = nil }, "TJ_ALLOWED_MEDIA_TYPES"},
		{"zero gc time", func(c *Config) { c.CacheGCTime = 0 }, "TJ_CACHE_GC_TIME"},
		{"zero retention", func(c *Config) { c.DraftRetention = 0 }, "TJ_DRAFT_RETENTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}
