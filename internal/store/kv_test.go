package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestMemoryStore_GetMissingKeyReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), KeyUserID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
}

func TestMemoryStore_SetOverwritesUnconditionally(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, KeyUserID, "41"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Set(ctx, KeyUserID, "42"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := s.Get(ctx, KeyUserID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "42" {
		t.Fatalf("expected last write to win, got %q", got)
	}
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, KeyPassword, "hunter2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Delete(ctx, KeyPassword); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := s.Delete(ctx, KeyPassword); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if _, err := s.Get(ctx, KeyPassword); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	if err := s.Set(ctx, KeyProfile, `{"id":"7"}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, KeyProfile)
	if err != nil {
		t.Fatalf("Get after reopen returned error: %v", err)
	}
	if got != `{"id":"7"}` {
		t.Fatalf("expected persisted value after reopen, got %q", got)
	}
}

func TestSQLiteStore_OverwriteAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, KeyUserID, "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Set(ctx, KeyUserID, "2"); err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}
	got, err := s.Get(ctx, KeyUserID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "2" {
		t.Fatalf("expected overwritten value, got %q", got)
	}

	if err := s.Delete(ctx, KeyUserID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := s.Get(ctx, KeyUserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
