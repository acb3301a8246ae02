package anki

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/wortschatz/internal/audio"
	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/testutil"
)

func zipNames(t *testing.T, path string) map[string]bool {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open package %s: %v", path, err)
	}
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	return names
}

func TestCompileToFile(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	ctx := context.Background()

	e := testutil.InsertTestEntry(t, st, "42", "haus")
	e.AudioKey = audio.Key("42", "haus")
	e.Examples[0].AudioKey = audio.Key("42", e.Examples[0].Text)
	if err := st.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	for _, key := range []string{e.AudioKey, e.Examples[0].AudioKey} {
		if err := blobs.Put(ctx, key, testutil.AudioData(), "audio/mpeg"); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}
	testutil.InsertTestEntry(t, st, "42", "baum")

	output := filepath.Join(t.TempDir(), "deck.apkg")
	compiler := NewCompiler(st, blobs, "Test Deck")

	cards, err := compiler.CompileToFile(ctx, "42", output)
	if err != nil {
		t.Fatalf("CompileToFile() error: %v", err)
	}
	if cards != 2 {
		t.Errorf("cards = %d, want 2", cards)
	}

	names := zipNames(t, output)
	if !names["collection.anki2"] {
		t.Error("package missing collection.anki2")
	}
	if !names["media"] {
		t.Error("package missing media manifest")
	}
	// Two audio blobs for the haus card, stored under numeric names.
	if !names["0"] || !names["1"] {
		t.Errorf("package missing media files: %v", names)
	}
}

func TestCompileSkipsUnenrichedEntries(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	ctx := context.Background()

	testutil.InsertTestEntry(t, st, "42", "haus")

	// Submitted but never enriched; must not surface as a blank card.
	pending := &entry.LanguageEntry{OwnerID: "42", Query: "baum"}
	if err := st.Upsert(ctx, pending); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	output := filepath.Join(t.TempDir(), "deck.apkg")
	compiler := NewCompiler(st, blobs, "Test Deck")

	cards, err := compiler.CompileToFile(ctx, "42", output)
	if err != nil {
		t.Fatalf("CompileToFile() error: %v", err)
	}
	if cards != 1 {
		t.Errorf("cards = %d, want 1", cards)
	}
}

func TestCompileMissingAudioDegrades(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	ctx := context.Background()

	// The entry references audio that was never stored.
	e := testutil.InsertTestEntry(t, st, "42", "haus")
	e.AudioKey = audio.Key("42", "haus")
	if err := st.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	output := filepath.Join(t.TempDir(), "deck.apkg")
	compiler := NewCompiler(st, blobs, "Test Deck")

	cards, err := compiler.CompileToFile(ctx, "42", output)
	if err != nil {
		t.Fatalf("CompileToFile() error: %v", err)
	}
	if cards != 1 {
		t.Errorf("cards = %d, want 1", cards)
	}
}

func TestCompileEmptyCollection(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	compiler := NewCompiler(st, blobs, "Test Deck")
	output := filepath.Join(t.TempDir(), "deck.apkg")

	t.Run("no entries at all", func(t *testing.T) {
		_, err := compiler.CompileToFile(context.Background(), "42", output)
		if !errors.Is(err, ErrEmptyCollection) {
			t.Errorf("error = %v, want ErrEmptyCollection", err)
		}
	})

	t.Run("only unenriched entries", func(t *testing.T) {
		pending := &entry.LanguageEntry{OwnerID: "42", Query: "haus"}
		if err := st.Upsert(context.Background(), pending); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
		_, err := compiler.CompileToFile(context.Background(), "42", output)
		if !errors.Is(err, ErrEmptyCollection) {
			t.Errorf("error = %v, want ErrEmptyCollection", err)
		}
	})
}

func TestCompileBytesStoresNoArtifact(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobDir := t.TempDir()
	blobs, err := blob.NewStore(&blob.Config{Backend: "fs", Dir: blobDir})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	ctx := context.Background()

	testutil.InsertTestEntry(t, st, "42", "haus")

	compiler := NewCompiler(st, blobs, "Test Deck")
	data, cards, err := compiler.CompileBytes(ctx, "42")
	if err != nil {
		t.Fatalf("CompileBytes() error: %v", err)
	}
	if cards != 1 {
		t.Errorf("cards = %d, want 1", cards)
	}
	if len(data) < 2 || data[0] != 'P' || data[1] != 'K' {
		t.Error("result is not a zip archive")
	}

	// Serving a deck must not leave export artifacts behind.
	if _, err := os.Stat(filepath.Join(blobDir, "exports")); !os.IsNotExist(err) {
		t.Errorf("exports directory exists after CompileBytes: %v", err)
	}
}

func TestCompileStoresArtifact(t *testing.T) {
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	ctx := context.Background()

	testutil.InsertTestEntry(t, st, "42", "haus")

	compiler := NewCompiler(st, blobs, "Test Deck")
	key, err := compiler.Compile(ctx, "42")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if !strings.HasPrefix(key, "exports/42/") || !strings.HasSuffix(key, ".apkg") {
		t.Errorf("artifact key = %q", key)
	}

	data, err := blobs.Get(ctx, key)
	if err != nil {
		t.Fatalf("artifact not stored: %v", err)
	}
	if len(data) == 0 {
		t.Error("artifact is empty")
	}
	// A zip file starts with "PK".
	if len(data) < 2 || data[0] != 'P' || data[1] != 'K' {
		t.Errorf("artifact is not a zip: % x", data[:2])
	}
}
