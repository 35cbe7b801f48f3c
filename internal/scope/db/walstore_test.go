package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dsjohal14/studybank/internal/scope/db/wal"
)

func TestWALKVPutGet(t *testing.T) {
	ctx := context.Background()

	kv, err := NewWALKV(DefaultWALConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to create WAL store: %v", err)
	}
	defer func() { _ = kv.Close() }()

	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Errorf("expected v1, got %q (%v)", got, err)
	}
}

func TestWALKVRecovery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := NewWALKV(DefaultWALConfig(dir))
	if err != nil {
		t.Fatalf("failed to create WAL store: %v", err)
	}
	_ = kv.Put(ctx, "a", []byte("1"))
	_ = kv.Put(ctx, "b", []byte("1"))
	_ = kv.Put(ctx, "a", []byte("2"))
	if err := kv.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	kv, err = NewWALKV(DefaultWALConfig(dir))
	if err != nil {
		t.Fatalf("failed to reopen WAL store: %v", err)
	}
	defer func() { _ = kv.Close() }()

	a, _ := kv.Get(ctx, "a")
	b, _ := kv.Get(ctx, "b")
	if string(a) != "2" || string(b) != "1" {
		t.Errorf("unexpected recovered values a=%q b=%q", a, b)
	}

	// writes after recovery continue the LSN sequence
	if err := kv.Put(ctx, "a", []byte("3")); err != nil {
		t.Fatalf("put after recovery failed: %v", err)
	}
}

func TestWALKVCompactsOnGrowth(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := DefaultWALConfig(dir)
	cfg.MaxSegmentSize = 512

	kv, err := NewWALKV(cfg)
	if err != nil {
		t.Fatalf("failed to create WAL store: %v", err)
	}

	for i := 0; i < 50; i++ {
		if err := kv.Put(ctx, "answers", []byte(fmt.Sprintf("version-%02d", i))); err != nil {
			t.Fatalf("put %d failed: %v", i, err)
		}
	}
	_ = kv.Close()

	segments, _ := wal.ListSegments(dir)
	if len(segments) != 1 {
		t.Errorf("expected a single segment after compaction, got %d", len(segments))
	}
	if segments[0].ID == 1 {
		t.Error("expected compaction to advance the segment id")
	}

	kv, err = NewWALKV(cfg)
	if err != nil {
		t.Fatalf("failed to reopen WAL store: %v", err)
	}
	defer func() { _ = kv.Close() }()

	got, _ := kv.Get(ctx, "answers")
	if string(got) != "version-49" {
		t.Errorf("expected latest version, got %q", got)
	}
}

func TestWALKVClosed(t *testing.T) {
	ctx := context.Background()
	kv, _ := NewWALKV(DefaultWALConfig(t.TempDir()))
	_ = kv.Close()

	if err := kv.Put(ctx, "k", []byte("v")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
