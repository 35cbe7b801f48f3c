package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSegmentSize is the size past which the log asks for compaction (4MB)
const DefaultMaxSegmentSize = 4 * 1024 * 1024

// SyncPolicy controls when to fsync writes to disk
type SyncPolicy struct {
	Immediate bool          // Sync after every write
	Interval  time.Duration // Background sync interval (default: 100ms)
	BatchSize int           // Sync every N records (default: 100)
}

// DefaultSyncPolicy returns a balanced sync policy
func DefaultSyncPolicy() SyncPolicy {
	return SyncPolicy{
		Immediate: false,
		Interval:  100 * time.Millisecond,
		BatchSize: 100,
	}
}

// ImmediateSyncPolicy returns a policy that syncs after every write
func ImmediateSyncPolicy() SyncPolicy {
	return SyncPolicy{
		Immediate: true,
	}
}

// Writer appends records to the active segment. Safe for concurrent use.
type Writer struct {
	mu         sync.Mutex
	dir        string
	file       *os.File
	segmentID  uint64
	lsn        uint64 // Next LSN to assign
	offset     int64
	syncPolicy SyncPolicy
	maxSize    int64

	pendingWrites int
	syncTicker    *time.Ticker
	stopSync      chan struct{}
	wg            sync.WaitGroup

	closed bool
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithSyncPolicy sets the sync policy
func WithSyncPolicy(policy SyncPolicy) WriterOption {
	return func(w *Writer) {
		w.syncPolicy = policy
	}
}

// WithMaxSegmentSize sets the compaction threshold
func WithMaxSegmentSize(size int64) WriterOption {
	return func(w *Writer) {
		w.maxSize = size
	}
}

// WithInitialLSN sets the first LSN to assign (for recovery)
func WithInitialLSN(lsn uint64) WriterOption {
	return func(w *Writer) {
		w.lsn = lsn
	}
}

// WithInitialSegmentID sets the segment to append to (for recovery)
func WithInitialSegmentID(segmentID uint64) WriterOption {
	return func(w *Writer) {
		w.segmentID = segmentID
	}
}

// NewWriter opens dir for appending
func NewWriter(dir string, opts ...WriterOption) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	w := &Writer{
		dir:        dir,
		segmentID:  1,
		lsn:        1,
		syncPolicy: DefaultSyncPolicy(),
		maxSize:    DefaultMaxSegmentSize,
		stopSync:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.openSegment(); err != nil {
		return nil, err
	}

	if !w.syncPolicy.Immediate && w.syncPolicy.Interval > 0 {
		w.startBackgroundSync()
	}

	return w, nil
}

// openSegment opens the current segment for append, truncating a torn tail
func (w *Writer) openSegment() error {
	path := w.segmentPath(w.segmentID)

	if stat, err := os.Stat(path); err == nil && stat.Size() > 0 {
		valid, err := lastValidOffset(path)
		if err != nil {
			return fmt.Errorf("failed to scan segment for corruption: %w", err)
		}
		if valid < stat.Size() {
			if err := os.Truncate(path, valid); err != nil {
				return fmt.Errorf("failed to truncate corrupt segment: %w", err)
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open segment %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat segment %s: %w", path, err)
	}

	w.file = f
	w.offset = stat.Size()
	return nil
}

func (w *Writer) segmentPath(segmentID uint64) string {
	return filepath.Join(w.dir, SegmentFilename(segmentID))
}

// Append writes a record, syncing according to the policy, and returns its LSN
func (w *Writer) Append(recType RecordType, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lsn, err := w.appendLocked(recType, payload)
	if err != nil {
		return 0, err
	}

	if w.syncPolicy.Immediate ||
		(w.syncPolicy.BatchSize > 0 && w.pendingWrites >= w.syncPolicy.BatchSize) {
		if err := w.syncLocked(); err != nil {
			return 0, fmt.Errorf("failed to sync: %w", err)
		}
	}

	return lsn, nil
}

// AppendWithSync writes a record and fsyncs before returning
func (w *Writer) AppendWithSync(recType RecordType, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lsn, err := w.appendLocked(recType, payload)
	if err != nil {
		return 0, err
	}
	if err := w.syncLocked(); err != nil {
		return 0, fmt.Errorf("failed to sync: %w", err)
	}
	return lsn, nil
}

func (w *Writer) appendLocked(recType RecordType, payload []byte) (uint64, error) {
	if w.closed {
		return 0, fmt.Errorf("WAL writer is closed")
	}
	if w.file == nil {
		return 0, fmt.Errorf("no active segment")
	}

	rec, err := NewRecord(recType, w.lsn, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to create record: %w", err)
	}

	data := rec.Encode()
	n, err := w.file.Write(data)
	if err != nil {
		return 0, fmt.Errorf("failed to write record: %w", err)
	}
	if n != len(data) {
		return 0, fmt.Errorf("short write: %d < %d", n, len(data))
	}

	w.lsn++
	w.offset += int64(n)
	w.pendingWrites++
	return rec.LSN, nil
}

// Sync forces fsync to disk
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *Writer) syncLocked() error {
	if w.file == nil || w.pendingWrites == 0 {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.pendingWrites = 0
	return nil
}

// NeedsCompaction reports whether the active segment grew past the max size
func (w *Writer) NeedsCompaction() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset >= w.maxSize
}

// Compact replaces every segment with a single new segment holding one
// PUT per entry followed by a CHECKPOINT. The new segment is written to a
// temp file and renamed into place before older segments are removed, so a
// crash at any point leaves a log that replays to the same state.
func (w *Writer) Compact(entries map[string][]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("WAL writer is closed")
	}

	err := w.compactLocked(entries)
	if err != nil && w.file == nil {
		// keep appending to whatever segment is current
		if reopenErr := w.openSegment(); reopenErr != nil {
			return fmt.Errorf("%w (reopen failed: %v)", err, reopenErr)
		}
	}
	return err
}

func (w *Writer) compactLocked(entries map[string][]byte) error {
	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close segment: %w", err)
	}
	w.file = nil

	nextID := w.segmentID + 1
	tmpPath := w.segmentPath(nextID) + ".tmp"

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create compaction file: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lsn := w.lsn
	write := func(recType RecordType, payload []byte) error {
		rec, err := NewRecord(recType, lsn, payload)
		if err != nil {
			return err
		}
		if _, err := tmp.Write(rec.Encode()); err != nil {
			return err
		}
		lsn++
		return nil
	}

	for _, k := range keys {
		payload, err := EncodePutPayload(k, entries[k])
		if err == nil {
			err = write(RecordTypePut, payload)
		}
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("failed to write snapshot of %q: %w", k, err)
		}
	}
	if err := write(RecordTypeCheckpoint, EncodeCheckpointPayload(uint64(len(keys)))); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync compaction file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close compaction file: %w", err)
	}
	if err := os.Rename(tmpPath, w.segmentPath(nextID)); err != nil {
		return fmt.Errorf("failed to install compacted segment: %w", err)
	}

	// from here on appends must land after the snapshot
	w.segmentID = nextID
	w.lsn = lsn

	segments, err := ListSegments(w.dir)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.ID < nextID {
			if err := os.Remove(seg.Path); err != nil {
				return fmt.Errorf("failed to remove segment %d: %w", seg.ID, err)
			}
		}
	}

	return w.openSegment()
}

func (w *Writer) startBackgroundSync() {
	w.syncTicker = time.NewTicker(w.syncPolicy.Interval)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.syncTicker.C:
				w.mu.Lock()
				_ = w.syncLocked()
				w.mu.Unlock()
			case <-w.stopSync:
				return
			}
		}
	}()
}

// Close syncs and closes the active segment
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.syncTicker != nil {
		w.syncTicker.Stop()
		close(w.stopSync)
	}
	w.mu.Unlock()

	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync on close: %w", err)
		}
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close segment: %w", err)
		}
		w.file = nil
	}
	return nil
}

// CurrentLSN returns the next LSN to be assigned
func (w *Writer) CurrentLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lsn
}

// CurrentSegmentID returns the active segment ID
func (w *Writer) CurrentSegmentID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.segmentID
}

// CurrentOffset returns the write offset in the active segment
func (w *Writer) CurrentOffset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// Dir returns the WAL directory
func (w *Writer) Dir() string {
	return w.dir
}
