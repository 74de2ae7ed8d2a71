package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("blobstore: key not found")

// ErrUnknownDriver is returned by Open for unsupported drivers.
var ErrUnknownDriver = errors.New("blobstore: unknown driver")

// Store persists whole blobs. Put replaces any previous value atomically from
// the caller's point of view.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	// Path is a directory (file, badger) or a database file (sqlite).
	Path string
	// RedisAddr is host:port of the Redis server.
	RedisAddr string
	// RedisPrefix is prepended to every key stored in Redis.
	RedisPrefix string
	// DialTimeout bounds the initial connectivity check of network backends.
	DialTimeout time.Duration
	// Logger receives backend diagnostics where the backend supports it.
	Logger *zap.Logger
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.Path)
	case DriverSQLite:
		if cfg.Path != "" && !strings.HasPrefix(cfg.Path, ":memory:") && !strings.HasPrefix(cfg.Path, "file:") {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
				return nil, eris.Wrap(err, "sqlite: create parent directory")
			}
		}
		return NewSQLite(ctx, cfg.Path)
	case DriverBadger:
		return NewBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: cfg.Logger})
	case DriverRedis:
		return NewRedis(ctx, RedisConfig{Addr: cfg.RedisAddr, Prefix: cfg.RedisPrefix, DialTimeout: cfg.DialTimeout})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("blobstore: key is required")
	}
	return nil
}
