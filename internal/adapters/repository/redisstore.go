package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/loanguard/internal/domain/model"
)

const (
	redisBackend  = "redis"
	defaultPrefix = "loanguard:fixture:"
	recordSpace   = "record:"
	indexKey      = "names"
	pingTimeout   = 3 * time.Second
)

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps each fixture as a JSON string under prefix+"record:"+name
// and tracks names in a set at prefix+"names". Record keys and the index live
// in separate namespaces, so no fixture name can overwrite the index.
type RedisStore struct {
	client redisClient
	prefix string
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr string, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := newRedisStore(client, opts...)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis %s: %w", ErrUnavailable, addr, err)
	}
	return s, nil
}

func newRedisStore(client redisClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, name string, rec model.BorrowerRecord) (err error) {
	defer func(start time.Time) { observe(redisBackend, "save", start, err) }(time.Now())
	if err := checkName(name); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode fixture %q: %w", name, err)
	}
	if err := s.client.Set(ctx, s.recordKey(name), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %w", ErrUnavailable, name, err)
	}
	if err := s.client.SAdd(ctx, s.prefix+indexKey, name).Err(); err != nil {
		return fmt.Errorf("%w: index %q: %w", ErrUnavailable, name, err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, name string) (rec model.BorrowerRecord, err error) {
	defer func(start time.Time) { observe(redisBackend, "load", start, err) }(time.Now())

	data, err := s.client.Get(ctx, s.recordKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BorrowerRecord{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return model.BorrowerRecord{}, fmt.Errorf("%w: get %q: %w", ErrUnavailable, name, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.BorrowerRecord{}, fmt.Errorf("decode fixture %q: %w", name, err)
	}
	return rec, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) (names []string, err error) {
	defer func(start time.Time) { observe(redisBackend, "list", start, err) }(time.Now())

	names, err = s.client.SMembers(ctx, s.prefix+indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) recordKey(name string) string {
	return s.prefix + recordSpace + name
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
