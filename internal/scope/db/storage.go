// Package db provides the key/value backends that persist study data.
package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dsjohal14/studybank/internal/libs/config"
	"github.com/dsjohal14/studybank/internal/scope/db/wal"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned by Get when the key has never been written
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("store is closed")
)

// KV is a durable string-keyed blob store.
// Put replaces the whole value of a key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Flusher is implemented by backends that can acknowledge a Put before it
// reaches disk. Flush makes every acknowledged Put durable.
type Flusher interface {
	Flush() error
}

var (
	_ Flusher = (*WALKV)(nil)
	_ Flusher = (*BadgerKV)(nil)

	_ KV = (*FileKV)(nil)
	_ KV = (*WALKV)(nil)
	_ KV = (*MemKV)(nil)
	_ KV = (*PostgresKV)(nil)
	_ KV = (*BadgerKV)(nil)
	_ KV = (*RedisKV)(nil)
)

// Options selects and configures a backend
type Options struct {
	Backend       string
	DataDir       string
	DatabaseURL   string
	RedisURL      string
	SyncImmediate bool
	Logger        zerolog.Logger
}

// OptionsFromConfig maps application config onto backend options
func OptionsFromConfig(cfg *config.Config, logger zerolog.Logger) Options {
	return Options{
		Backend:       cfg.StoreBackend,
		DataDir:       cfg.DataDir,
		DatabaseURL:   cfg.DatabaseURL,
		RedisURL:      cfg.RedisURL,
		SyncImmediate: cfg.WALSyncImmediate,
		Logger:        logger,
	}
}

// Open creates the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case config.BackendFile, "":
		return NewFileKV(opts.DataDir)
	case config.BackendWAL:
		policy := wal.DefaultSyncPolicy()
		if opts.SyncImmediate {
			policy = wal.ImmediateSyncPolicy()
		}
		return NewWALKV(WALConfig{
			Dir:        filepath.Join(opts.DataDir, "wal"),
			SyncPolicy: policy,
			Logger:     opts.Logger,
		})
	case config.BackendBadger:
		return NewBadgerKV(BadgerConfig{
			Path:       filepath.Join(opts.DataDir, "badger"),
			SyncWrites: opts.SyncImmediate,
			Logger:     opts.Logger,
		})
	case config.BackendPostgres:
		return NewPostgresKV(ctx, opts.DatabaseURL)
	case config.BackendRedis:
		return NewRedisKV(ctx, opts.RedisURL)
	case config.BackendMemory:
		return NewMemKV(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}
