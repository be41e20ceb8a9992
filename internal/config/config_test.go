package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.True(t, cfg.RedisEnabled)
	assert.False(t, cfg.ElasticEnabled)
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestDecodeEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENV", " Production ")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("S3_BUCKET", "photos")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.StorageEnabled())
}
