package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "cresp", cfg.ServiceName)
	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, 168*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, "local", cfg.StorageProvider)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, []string{
		"image/jpeg", "image/png", "image/gif", "image/webp", "video/mp4", "video/webm",
	}, cfg.UploadAllowedTypes)
	assert.Equal(t, 5.0, cfg.ModerationHideThreshold)
	assert.Equal(t, 72*time.Hour, cfg.ModerationNewAccountWindow)
	assert.Equal(t, 0.5, cfg.ModerationNewAccountFactor)
	assert.Equal(t, "@every 1h", cfg.JanitorSchedule)
	assert.Equal(t, 24*time.Hour, cfg.JanitorOrphanTTL)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("STORAGE_PROVIDER", "s3")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "image/png,image/webp")
	t.Setenv("MODERATION_HIDE_THRESHOLD", "7.5")
	t.Setenv("JANITOR_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.StorageProvider)
	assert.Equal(t, []string{"image/png", "image/webp"}, cfg.UploadAllowedTypes)
	assert.Equal(t, 7.5, cfg.ModerationHideThreshold)
	assert.False(t, cfg.JanitorEnabled)
}

func TestNew_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("AUTH_SECRET", "")

	_, err := New()
	assert.Error(t, err)
}
