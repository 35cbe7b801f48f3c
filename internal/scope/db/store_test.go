package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKVPutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = kv.Close() }()

	if _, err := kv.Get(ctx, "myAnswers_v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Put(ctx, "myAnswers_v1", []byte(`{"q1":{}}`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := kv.Put(ctx, "myAnswers_v1", []byte(`{"q2":{}}`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := kv.Get(ctx, "myAnswers_v1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"q2":{}}` {
		t.Errorf("unexpected value %q", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "myAnswers_v1.json")); err != nil {
		t.Errorf("expected value file on disk: %v", err)
	}

	// no temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected 1 file in data dir, got %d", len(entries))
	}
}

func TestFileKVPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, _ := NewFileKV(dir)
	if err := kv.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	_ = kv.Close()

	kv, _ = NewFileKV(dir)
	defer func() { _ = kv.Close() }()

	got, err := kv.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("expected v after reopen, got %q (%v)", got, err)
	}
}

func TestFileKVInvalidKeys(t *testing.T) {
	ctx := context.Background()
	kv, _ := NewFileKV(t.TempDir())
	defer func() { _ = kv.Close() }()

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := kv.Put(ctx, key, []byte("x")); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestFileKVClosed(t *testing.T) {
	ctx := context.Background()
	kv, _ := NewFileKV(t.TempDir())
	_ = kv.Close()

	if err := kv.Put(ctx, "k", []byte("v")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNewFileKVRequiresDir(t *testing.T) {
	if _, err := NewFileKV(""); err == nil {
		t.Error("expected error for empty data directory")
	}
}
