package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "todo_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("PORT", "5050")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "todo_test", cfg.MongoDB.Database)
	require.Equal(t, "todo", cfg.MongoDB.Collection)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "0.0.0.0:5050", cfg.Server.Addr())
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.False(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_URL", "mongodb://legacy:27017")
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://legacy:27017", cfg.MongoDB.URI)
	require.Equal(t, "4040", cfg.Server.Port)
	require.Equal(t, "", cfg.Redis.Addr())
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "0")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_USE_REDIS", "true")
	t.Setenv("REDIS_HOST", "")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "REDIS_HOST")
}
