package wal

import (
	"fmt"
	"time"
)

// RecoveryStats describes a replay
type RecoveryStats struct {
	SegmentsLoaded int
	RecordsLoaded  int
	Checkpoints    int
	TornSegments   int // segments that ended in a torn or corrupt record
	MaxLSN         uint64
	LatestSegment  uint64
	RecoveryTime   time.Duration
}

// KeyIndex receives recovered key/value pairs
type KeyIndex interface {
	SetRecovered(key string, value []byte)
}

// Recover replays every segment in dir in ID order into index.
// A torn tail only stops the replay of its own segment.
func Recover(dir string, index KeyIndex) (*RecoveryStats, error) {
	start := time.Now()
	stats := &RecoveryStats{}

	segments, err := ListSegments(dir)
	if err != nil {
		return nil, err
	}

	for _, seg := range segments {
		if err := replaySegment(seg, index, stats); err != nil {
			return nil, err
		}
		stats.SegmentsLoaded++
		stats.LatestSegment = seg.ID
	}

	stats.RecoveryTime = time.Since(start)
	return stats, nil
}

func replaySegment(seg Segment, index KeyIndex, stats *RecoveryStats) error {
	it, err := NewSegmentIterator(seg.Path)
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
		rec := it.Record()
		if rec.LSN > stats.MaxLSN {
			stats.MaxLSN = rec.LSN
		}

		switch rec.Type {
		case RecordTypePut:
			key, value, err := DecodePutPayload(rec.Payload)
			if err != nil {
				return fmt.Errorf("segment %d LSN %d: %w", seg.ID, rec.LSN, err)
			}
			index.SetRecovered(key, value)
			stats.RecordsLoaded++
		case RecordTypeCheckpoint:
			stats.Checkpoints++
		}
	}

	if it.Err() != nil {
		stats.TornSegments++
	}
	return nil
}
