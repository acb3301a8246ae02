package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/store"
)

// OpenTestStore opens an entry store backed by a temporary database
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// OpenTestBlobStore opens a filesystem blob store in a temporary directory
func OpenTestBlobStore(t *testing.T) blob.Store {
	t.Helper()

	blobs, err := blob.NewStore(&blob.Config{Backend: "fs", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test blob store: %v", err)
	}

	return blobs
}

// InsertTestEntry persists an enriched entry for owner and returns it
func InsertTestEntry(t *testing.T, st *store.Store, ownerID, query string) *entry.LanguageEntry {
	t.Helper()

	e := &entry.LanguageEntry{
		OwnerID:     ownerID,
		Query:       query,
		Definition:  "definition of " + query,
		Translation: "translation of " + query,
		Examples: []entry.Example{
			{Text: query + " example", Translation: query + " example translated"},
		},
	}
	if err := st.Upsert(context.Background(), e); err != nil {
		t.Fatalf("Failed to insert test entry: %v", err)
	}

	return e
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}
