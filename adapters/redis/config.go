// Package redisstore provides a Redis-backed session.Store so that
// hosts serving many concurrent answer streams can share and survive
// per-stream render state.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis-backed Store.
type Config struct {
	Addr         string
	DB           int
	Password     string
	Prefix       string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	Username     string
}

// Store is a Redis-backed implementation of session.Store.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	// cached SHA for the append-event Lua script
	appendSHA string
	// ownsClient determines whether Close should close the underlying client
	ownsClient bool
}

// New creates a new Redis Store with the provided configuration.
func New(cfg Config) (*Store, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "mathagent"
	}
	s := &Store{rdb: rdb, prefix: prefix, ownsClient: true}
	// Cache the script SHA; fall back to EVAL when loading fails.
	if sha, err := s.rdb.ScriptLoad(ctx, luaAppendEvent).Result(); err == nil {
		s.appendSHA = sha
	}
	return s, nil
}

// NewWithClient wraps an existing client; Close will not close it.
func NewWithClient(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "mathagent"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Close releases the underlying client when the store owns it.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	if c, ok := s.rdb.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
