package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_ENFORCE", "")
	t.Setenv("MILESTONE_SWEEP_INTERVAL", "")

	require.NoError(t, LoadConfig())

	assert.Equal(t, DefaultJWTSecret, AppConfig.JWTSecret)
	assert.False(t, AppConfig.AuthEnforce)
	assert.Equal(t, time.Duration(0), AppConfig.MilestoneSweep)
	assert.Equal(t, 7*24*time.Hour, AppConfig.SessionTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_ENFORCE", "true")
	t.Setenv("MILESTONE_SWEEP_INTERVAL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	require.NoError(t, LoadConfig())

	assert.Equal(t, "s3cret", AppConfig.JWTSecret)
	assert.True(t, AppConfig.AuthEnforce)
	assert.Equal(t, 15*time.Minute, AppConfig.MilestoneSweep)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AppConfig.AllowedOrigins)
	assert.Equal(t, 10, AppConfig.MaxUploadMB)
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", DefaultJWTSecret)
	t.Setenv("DB_PASSWORD", "pw")

	err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "host=x password=***** dbname=y", maskPassword("host=x password=hunter2 dbname=y"))
	assert.Equal(t, "host=x password=*****", maskPassword("host=x password=hunter2"))
	assert.Equal(t, "host=x", maskPassword("host=x"))
}
