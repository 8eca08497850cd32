package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bookdrop", cfg.ServiceName)
	assert.Equal(t, ":8193", cfg.Addr())
	assert.Equal(t, 10*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, time.Hour, cfg.SessionHardTTL)
	assert.Equal(t, int64(800*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.MaxUploadFiles)
	assert.Equal(t, "kindlegen", cfg.KindlegenPath)
	assert.Equal(t, "kepubify", cfg.KepubifyPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOOKDROP_PORT", "9000")
	t.Setenv("SESSION_IDLE_TTL", "2m")
	t.Setenv("SESSION_HARD_TTL", "30m")
	t.Setenv("MAX_UPLOAD_FILES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 2*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionHardTTL)
	assert.Equal(t, 3, cfg.MaxUploadFiles)
}

func TestLoadRejectsInvertedTTLs(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "1h")
	t.Setenv("SESSION_HARD_TTL", "10m")

	_, err := Load()
	require.Error(t, err)
}
