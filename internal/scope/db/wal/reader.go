package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	segmentPrefix = "wal_"
	segmentSuffix = ".seg"
)

// SegmentFilename returns the file name for a segment ID
func SegmentFilename(segmentID uint64) string {
	return fmt.Sprintf("%s%012d%s", segmentPrefix, segmentID, segmentSuffix)
}

// ParseSegmentID extracts the segment ID from a file name
func ParseSegmentID(filename string) (uint64, error) {
	base := filepath.Base(filename)
	if !strings.HasPrefix(base, segmentPrefix) || !strings.HasSuffix(base, segmentSuffix) {
		return 0, fmt.Errorf("not a segment file: %s", base)
	}
	idStr := strings.TrimSuffix(strings.TrimPrefix(base, segmentPrefix), segmentSuffix)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid segment id in %s: %w", base, err)
	}
	return id, nil
}

// Segment is a segment file on disk
type Segment struct {
	ID   uint64
	Path string
}

// ListSegments returns the segments in dir ordered by ID
func ListSegments(dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}

	var segments []Segment
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, err := ParseSegmentID(e.Name())
		if err != nil {
			continue
		}
		segments = append(segments, Segment{ID: id, Path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].ID < segments[j].ID
	})
	return segments, nil
}

// FindLatestSegment returns the highest segment ID in dir, or 0 if there is none
func FindLatestSegment(dir string) (uint64, error) {
	segments, err := ListSegments(dir)
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		return 0, nil
	}
	return segments[len(segments)-1].ID, nil
}

// SegmentIterator iterates over the valid records of a segment file.
// Iteration stops at the first torn or corrupt record; Err reports it.
type SegmentIterator struct {
	file   *os.File
	path   string
	offset int64
	record *Record
	err    error
}

// NewSegmentIterator opens a segment for reading
func NewSegmentIterator(path string) (*SegmentIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", path, err)
	}
	return &SegmentIterator{file: f, path: path}, nil
}

// Next advances to the next record
func (it *SegmentIterator) Next() bool {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(it.file, header); err != nil {
		if err != io.EOF {
			it.err = fmt.Errorf("torn header at offset %d: %w", it.offset, err)
		}
		return false
	}

	payloadLen := binary.LittleEndian.Uint32(header[16:20])
	if payloadLen > MaxPayloadSize {
		it.err = fmt.Errorf("invalid payload length %d at offset %d", payloadLen, it.offset)
		return false
	}

	data := make([]byte, HeaderSize+int(payloadLen)+4)
	copy(data, header)
	if _, err := io.ReadFull(it.file, data[HeaderSize:]); err != nil {
		it.err = fmt.Errorf("torn record at offset %d: %w", it.offset, err)
		return false
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		it.err = fmt.Errorf("corrupt record at offset %d: %w", it.offset, err)
		return false
	}

	it.record = rec
	it.offset += int64(len(data))
	return true
}

// Record returns the current record
func (it *SegmentIterator) Record() *Record {
	return it.record
}

// Err returns the error that stopped iteration, if any
func (it *SegmentIterator) Err() error {
	return it.err
}

// Offset returns the end offset of the last valid record
func (it *SegmentIterator) Offset() int64 {
	return it.offset
}

// Close closes the segment file
func (it *SegmentIterator) Close() error {
	return it.file.Close()
}

// ReadAllRecords reads every valid record of a segment
func ReadAllRecords(path string) ([]*Record, error) {
	it, err := NewSegmentIterator(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	var records []*Record
	for it.Next() {
		records = append(records, it.Record())
	}
	return records, it.Err()
}

// lastValidOffset returns the offset just past the last valid record
func lastValidOffset(path string) (int64, error) {
	it, err := NewSegmentIterator(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
	}
	return it.Offset(), nil
}
