package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage with one Redis string per key.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStorage connects and pings the server so a bad address fails at
// startup rather than on the first snapshot write.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return newRedisStorage(client, opts.Prefix), nil
}

func newRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix != "" {
		prefix += ":"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) redisKey(key string) string {
	return s.prefix + strings.TrimPrefix(key, "/")
}

func (s *RedisStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read redis key %s: %w", s.redisKey(key), err)
	}
	return data, nil
}

func (s *RedisStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write redis key %s: %w", s.redisKey(key), err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.redisKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete redis key %s: %w", s.redisKey(key), err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return nil
}

// List returns keys one level below prefix, like the filesystem backend.
func (s *RedisStorage) List(ctx context.Context, prefix string) ([]string, error) {
	base := s.redisKey(prefix)
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), base)
		if strings.Contains(rest, "/") {
			continue
		}
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list redis keys under %s: %w", base, err)
	}
	return keys, nil
}

func (s *RedisStorage) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check redis key %s: %w", s.redisKey(key), err)
	}
	return n > 0, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
