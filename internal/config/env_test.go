package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3200", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "jobflow-state", env.SnapshotKey)
	assert.Equal(t, "json", env.SnapshotFormat)
	assert.Equal(t, "ulid", env.IDScheme)
	assert.True(t, env.IsLocal())
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("JOBFLOW_STORAGE_TYPE", "redis")
	t.Setenv("JOBFLOW_REDIS_DB", "3")
	t.Setenv("JOBFLOW_SNAPSHOT_FORMAT", "yaml")
	t.Setenv("JOBFLOW_LOG_LEVEL", "debug")
	t.Setenv("JOBFLOW_ID_SCHEME", "uuid")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "redis", env.StorageEnv.Type)
	assert.Equal(t, 3, env.RedisDB)
	assert.Equal(t, "yaml", env.SnapshotFormat)
	assert.Equal(t, "uuid", env.IDScheme)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"JOBFLOW_STORAGE_TYPE":    "localstorage",
		"JOBFLOW_SNAPSHOT_FORMAT": "xml",
		"JOBFLOW_ID_SCHEME":       "serial",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadEnv()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_Fallback(t *testing.T) {
	e := &BaseEnv{LogLevel: "chatty"}
	assert.Equal(t, slog.LevelInfo, e.SlogLevel())

	var nilEnv *BaseEnv
	assert.Equal(t, slog.LevelInfo, nilEnv.SlogLevel())
}
