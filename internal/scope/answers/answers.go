// Package answers keeps the user's own answers keyed by question id.
package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/studybank/internal/libs/obs"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/db"
)

// StorageKey is the KV key holding the serialized mapping
const StorageKey = "myAnswers_v1"

// ExportFilename is the default name for exported snapshots
const ExportFilename = "myAnswers.json"

// timeLayout matches ISO-8601 with milliseconds, always in UTC
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrMalformedImport is returned when import text is not a mapping of id to record
var ErrMalformedImport = errors.New("malformed import")

// Record is the stored answer for one question
type Record struct {
	MyAnswer  string `json:"myAnswer"`
	UpdatedAt string `json:"updatedAt"`
}

// Snapshot maps question id to its record
type Snapshot map[string]Record

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Store owns the answer mapping. Every mutation is persisted before it
// becomes visible; a failed write leaves memory unchanged.
type Store struct {
	mu      sync.RWMutex
	kv      db.KV
	records Snapshot
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for updatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates a store over kv and loads the persisted mapping
func Open(ctx context.Context, kv db.KV, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		records: Snapshot{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load(ctx)
	return s
}

// Load replaces the in-memory mapping with the persisted one.
// Missing or unreadable data yields an empty mapping.
func (s *Store) Load(ctx context.Context) Snapshot {
	records := s.read(ctx)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	return records.clone()
}

func (s *Store) read(ctx context.Context) Snapshot {
	data, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Debug().Str("key", StorageKey).Msg("no saved answers")
		} else {
			s.logger.Warn().Err(err).Str("key", StorageKey).Msg("failed to read saved answers, starting empty")
		}
		return Snapshot{}
	}

	records, err := decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", StorageKey).Msg("saved answers are corrupt, starting empty")
		return Snapshot{}
	}
	return records
}

// Get returns the stored record for id
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// Count returns the number of stored records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Upsert replaces the record for id with myAnswer stamped now
func (s *Store) Upsert(ctx context.Context, id, myAnswer string) (Record, error) {
	rec, err := s.upsert(ctx, id, myAnswer)
	if err != nil {
		return Record{}, err
	}
	obs.AnswerWrites.WithLabelValues("upsert").Inc()
	return rec, nil
}

// Clear stores an empty answer for id; the key is kept
func (s *Store) Clear(ctx context.Context, id string) (Record, error) {
	rec, err := s.upsert(ctx, id, "")
	if err != nil {
		return Record{}, err
	}
	obs.AnswerWrites.WithLabelValues("clear").Inc()
	return rec, nil
}

func (s *Store) upsert(ctx context.Context, id, myAnswer string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("question id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		MyAnswer:  myAnswer,
		UpdatedAt: s.now().UTC().Format(timeLayout),
	}

	next := s.records.clone()
	next[id] = rec
	if err := s.persist(ctx, next); err != nil {
		return Record{}, err
	}
	s.records = next

	s.logger.Debug().Str("id", id).Int("len", len(myAnswer)).Msg("answer saved")
	return rec, nil
}

// MergeImport overwrites every incoming key, last writer wins.
// Timestamps are not compared.
func (s *Store) MergeImport(ctx context.Context, incoming Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.records.clone()
	for id, rec := range incoming {
		next[id] = rec
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.records = next

	obs.AnswerWrites.WithLabelValues("import").Add(float64(len(incoming)))
	s.logger.Info().Int("imported", len(incoming)).Int("total", len(next)).Msg("answers imported")
	return nil
}

// ImportJSON parses data and merges it, returning the number of imported records.
// Nothing changes unless data is a JSON object of record objects.
func (s *Store) ImportJSON(ctx context.Context, data []byte) (int, error) {
	incoming, err := decode(data)
	if err != nil {
		obs.Imports.WithLabelValues("malformed").Inc()
		return 0, err
	}
	if err := s.MergeImport(ctx, incoming); err != nil {
		obs.Imports.WithLabelValues("error").Inc()
		return 0, err
	}
	obs.Imports.WithLabelValues("ok").Inc()
	return len(incoming), nil
}

// Export returns a copy of the full mapping
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.clone()
}

// ExportJSON returns the mapping as indented JSON with markup characters
// left unescaped
func (s *Store) ExportJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Export()); err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Resolve returns the answer to show for q; a stored record shadows the seed
func (s *Store) Resolve(q bank.Question) (answer, updatedAt string) {
	answer, updatedAt = q.MyAnswer, q.UpdatedAt
	if rec, ok := s.Get(q.ID); ok {
		answer = rec.MyAnswer
		if rec.UpdatedAt != "" {
			updatedAt = rec.UpdatedAt
		}
	}
	return answer, updatedAt
}

func (s *Store) persist(ctx context.Context, records Snapshot) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to persist answers: %w", err)
	}
	// batched backends acknowledge before fsync
	if f, ok := s.kv.(db.Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to sync answers: %w", err)
		}
	}
	return nil
}

// decode parses a mapping of id to record. Unknown record fields are
// ignored and missing ones stay empty.
func decode(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformedImport)
	}

	out := make(Snapshot, len(raw))
	for id, value := range raw {
		var fields map[string]json.RawMessage
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: record %q is not an object", ErrMalformedImport, id)
		}
		out[id] = Record{
			MyAnswer:  textOf(fields["myAnswer"]),
			UpdatedAt: textOf(fields["updatedAt"]),
		}
	}
	return out, nil
}

// textOf renders a scalar JSON value as text; anything else is ""
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
