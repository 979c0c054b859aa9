package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options holds the settings of every backend; Open reads only those of the
// chosen one.
type Options struct {
	SQLitePath string
	RedisAddr  string
	RedisDB    int
}

// Open builds the store named by backend.
func Open(ctx context.Context, backend string, opts Options) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
