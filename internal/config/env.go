package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// APIKey is optional; when empty the API is open, as befits a
	// single-user board bound to localhost.
	APIKey   string `envconfig:"API_KEY"`
	IDScheme string `envconfig:"ID_SCHEME" default:"ulid"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".jobflow/data"`

	SnapshotKey    string `envconfig:"SNAPSHOT_KEY" default:"jobflow-state"`
	SnapshotFormat string `envconfig:"SNAPSHOT_FORMAT" default:"json"`

	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"jobflow/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`

	// Redis settings (used when Type == "redis")
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"jobflow"`
}

type Env struct {
	BaseEnv
	StorageEnv
}

const namespace = "JOBFLOW"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "local", "s3", "redis", "memory":
	default:
		return fmt.Errorf("unsupported %s_STORAGE_TYPE %q", namespace, e.StorageEnv.Type)
	}
	switch e.SnapshotFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported %s_SNAPSHOT_FORMAT %q", namespace, e.SnapshotFormat)
	}
	switch e.IDScheme {
	case "ulid", "uuid":
	default:
		return fmt.Errorf("unsupported %s_ID_SCHEME %q", namespace, e.IDScheme)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local"
}
