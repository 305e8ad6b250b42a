package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ELEVATED_ROLES", "")
	t.Setenv("MAX_UPLOAD_MB", "")

	cfg := FromEnv()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "uploads", cfg.UploadBasePath)
	assert.Equal(t, []string{"founder", "admin"}, cfg.ElevatedRoles)
	assert.Equal(t, 2048, cfg.MaxUploadMB)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ELEVATED_ROLES", " Admin , moderator,,")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"admin", "moderator"}, cfg.ElevatedRoles)
	assert.Equal(t, 2048, cfg.MaxUploadMB)
}

func TestIsElevated(t *testing.T) {
	cfg := &Config{ElevatedRoles: []string{"founder", "admin"}}
	require.True(t, cfg.IsElevated("ADMIN"))
	require.True(t, cfg.IsElevated(" founder "))
	require.False(t, cfg.IsElevated("student"))
	require.False(t, cfg.IsElevated(""))
}
