package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ekn/internal/db"
)

// Compile-time check: RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// RedisConfig holds connection parameters for a Redis blob mirror.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// Prefix is prepended to every key.
	Prefix string
}

// RedisStore serves keys stored as plain Redis strings.
type RedisStore struct {
	client rueidis.Client
	prefix string
}

// NewRedisStore creates a Redis store via rueidis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// NewRedisStoreForTest creates a RedisStore with the provided rueidis client (test-only).
func NewRedisStoreForTest(c rueidis.Client, prefix string) *RedisStore {
	return &RedisStore{client: c, prefix: prefix}
}

// Open reads the whole value behind key.
func (s *RedisStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cmd := s.client.B().Get().Key(s.prefix + key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether key is set.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.client.B().Exists().Key(s.prefix + key).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// Close shuts down the client.
func (s *RedisStore) Close() {
	s.client.Close()
}
