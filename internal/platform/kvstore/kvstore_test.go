package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("got %q", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.Put(ctx, "k", []byte("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := s.Get(ctx, "k")
	got[0] = 'z'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored blob mutated through returned slice: %q", again)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if _, err := s.Get(ctx, KeyPrescriptions); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Put(ctx, KeyPrescriptions, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, KeyPrescriptions)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("got %q", got)
	}

	// Overwrite fully replaces the blob.
	if err := s.Put(ctx, KeyPrescriptions, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, KeyPrescriptions)
	if string(got) != `[{"id":1}]` {
		t.Errorf("after overwrite got %q", got)
	}
}

func TestFile_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Delete(ctx, "never-written"); err != nil {
		t.Errorf("delete of absent key should be a no-op, got %v", err)
	}
}

func TestFile_KeyFlattening(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Put(ctx, KeyCurrentDoctor, []byte("3")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doctors_current-id.json")); err != nil {
		t.Errorf("expected flattened file name: %v", err)
	}
}

func TestFile_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := s.Put(ctx, "k", []byte("v")); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the blob file, found %d entries", len(entries))
	}
}
