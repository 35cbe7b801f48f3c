package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/dsjohal14/studybank/internal/scope/db/wal"
	"github.com/rs/zerolog"
)

// WALKV is a WAL-backed key/value store with durable writes.
// Reads are served from memory; the log is replayed on open.
type WALKV struct {
	dir        string
	index      *MemKV
	writer     *wal.Writer
	syncPolicy wal.SyncPolicy
	logger     zerolog.Logger
	mu         sync.Mutex
	closed     bool
}

// WALConfig holds configuration for WALKV
type WALConfig struct {
	// Dir is the WAL directory
	Dir string

	// SyncPolicy controls when to fsync
	SyncPolicy wal.SyncPolicy

	// MaxSegmentSize is the segment size that triggers compaction
	MaxSegmentSize int64

	Logger zerolog.Logger
}

// DefaultWALConfig returns a configuration that syncs every write
func DefaultWALConfig(dir string) WALConfig {
	return WALConfig{
		Dir:            dir,
		SyncPolicy:     wal.ImmediateSyncPolicy(),
		MaxSegmentSize: wal.DefaultMaxSegmentSize,
		Logger:         zerolog.Nop(),
	}
}

// NewWALKV recovers the log in cfg.Dir and opens it for writing
func NewWALKV(cfg WALConfig) (*WALKV, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("WAL directory is required")
	}

	index := NewMemKV()
	stats, err := wal.Recover(cfg.Dir, index)
	if err != nil {
		return nil, fmt.Errorf("failed to recover from WAL: %w", err)
	}

	segmentID := stats.LatestSegment
	if segmentID == 0 {
		segmentID = 1
	}

	opts := []wal.WriterOption{
		wal.WithSyncPolicy(cfg.SyncPolicy),
		wal.WithInitialLSN(stats.MaxLSN + 1),
		wal.WithInitialSegmentID(segmentID),
	}
	if cfg.MaxSegmentSize > 0 {
		opts = append(opts, wal.WithMaxSegmentSize(cfg.MaxSegmentSize))
	}

	writer, err := wal.NewWriter(cfg.Dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAL writer: %w", err)
	}

	cfg.Logger.Info().
		Int("keys", index.Len()).
		Int("segments", stats.SegmentsLoaded).
		Int("records", stats.RecordsLoaded).
		Int("torn_segments", stats.TornSegments).
		Uint64("next_lsn", stats.MaxLSN+1).
		Dur("recovery_time", stats.RecoveryTime).
		Msg("WAL store recovered")

	return &WALKV{
		dir:        cfg.Dir,
		index:      index,
		writer:     writer,
		syncPolicy: cfg.SyncPolicy,
		logger:     cfg.Logger,
	}, nil
}

// Get returns the latest value of key
func (s *WALKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return s.index.Get(ctx, key)
}

// Put appends the new value to the log, then updates memory
func (s *WALKV) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	payload, err := wal.EncodePutPayload(key, value)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	if s.syncPolicy.Immediate {
		_, err = s.writer.AppendWithSync(wal.RecordTypePut, payload)
	} else {
		_, err = s.writer.Append(wal.RecordTypePut, payload)
	}
	if err != nil {
		return fmt.Errorf("failed to write to WAL: %w", err)
	}

	if err := s.index.Put(ctx, key, value); err != nil {
		return err
	}

	if s.writer.NeedsCompaction() {
		// the write above is already durable; a failed compaction only delays reclaiming space
		if err := s.writer.Compact(s.index.Snapshot()); err != nil {
			s.logger.Warn().Err(err).Msg("WAL compaction failed")
		} else {
			s.logger.Debug().Uint64("segment", s.writer.CurrentSegmentID()).Msg("WAL compacted")
		}
	}
	return nil
}

// Flush syncs pending writes to disk
func (s *WALKV) Flush() error {
	if s.syncPolicy.Immediate {
		return nil
	}
	return s.writer.Sync()
}

// Close syncs and closes the log
func (s *WALKV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close WAL writer: %w", err)
	}
	return s.index.Close()
}

// Dir returns the WAL directory
func (s *WALKV) Dir() string {
	return s.dir
}
