package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFSPutGetDelete(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS() error: %v", err)
	}
	ctx := context.Background()

	data := []byte("audio bytes")
	if err := fs.Put(ctx, "audio/42/abc.mp3", data, "audio/mpeg"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := fs.Get(ctx, "audio/42/abc.mp3")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}

	// Overwrite replaces.
	if err := fs.Put(ctx, "audio/42/abc.mp3", []byte("new"), "audio/mpeg"); err != nil {
		t.Fatalf("Put() overwrite error: %v", err)
	}
	got, _ = fs.Get(ctx, "audio/42/abc.mp3")
	if string(got) != "new" {
		t.Errorf("overwrite did not replace: %q", got)
	}

	if err := fs.Delete(ctx, "audio/42/abc.mp3"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := fs.Get(ctx, "audio/42/abc.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}

	// Deleting again is fine.
	if err := fs.Delete(ctx, "audio/42/abc.mp3"); err != nil {
		t.Errorf("Delete() of missing object: %v", err)
	}
}

func TestFSRejectsBadKeys(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS() error: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../escape", "/absolute/path", "."} {
		if err := fs.Put(ctx, key, []byte("x"), ""); err == nil {
			t.Errorf("Put(%q) accepted an invalid key", key)
		}
		if _, err := fs.Get(ctx, key); err == nil {
			t.Errorf("Get(%q) accepted an invalid key", key)
		}
	}
}

func TestFSDeleteOlderThan(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS() error: %v", err)
	}
	ctx := context.Background()

	if err := fs.Put(ctx, "exports/42/old.apkg", []byte("old"), ""); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := fs.Put(ctx, "exports/42/new.apkg", []byte("new"), ""); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	// Age the first object past the cutoff.
	oldPath := filepath.Join(root, "exports", "42", "old.apkg")
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("Chtimes() error: %v", err)
	}

	removed, err := fs.DeleteOlderThan(ctx, "exports", 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := fs.Get(ctx, "exports/42/old.apkg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old artifact still present: %v", err)
	}
	if _, err := fs.Get(ctx, "exports/42/new.apkg"); err != nil {
		t.Errorf("new artifact swept: %v", err)
	}
}

func TestFSDeleteOlderThanMissingPrefix(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS() error: %v", err)
	}

	removed, err := fs.DeleteOlderThan(context.Background(), "exports", time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
