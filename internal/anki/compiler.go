package anki

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/store"
)

// ErrEmptyCollection is returned when an owner has no exportable entries,
// so callers can show a friendly message instead of producing an empty
// deck file.
var ErrEmptyCollection = errors.New("no entries to export")

// Compiler assembles a user's entries into a deck package.
//
// Entries that never finished enrichment (no definition) are skipped, not
// exported with blank backs; they stay invisible until a later submit
// completes them. Missing audio only drops the card's audio field.
type Compiler struct {
	store    *store.Store
	blobs    blob.Store
	deckName string
}

// NewCompiler creates a deck compiler.
func NewCompiler(st *store.Store, blobs blob.Store, deckName string) *Compiler {
	if deckName == "" {
		deckName = "Vocabulary"
	}
	return &Compiler{store: st, blobs: blobs, deckName: deckName}
}

// Compile builds the deck for ownerID and stores the artifact in the blob
// store under a timestamped exports key, returning that key. Retention of
// the artifact is the storage policy's business, not the compiler's.
func (c *Compiler) Compile(ctx context.Context, ownerID string) (string, error) {
	data, _, err := c.CompileBytes(ctx, ownerID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/%s/deck-%d.apkg", ownerID, time.Now().Unix())
	if err := c.blobs.Put(ctx, key, data, "application/zip"); err != nil {
		return "", fmt.Errorf("failed to store deck artifact: %w", err)
	}
	return key, nil
}

// CompileBytes builds the deck for ownerID and returns the package bytes
// and card count without storing an artifact. Download handlers use this
// so serving a deck does not pile up export blobs.
func (c *Compiler) CompileBytes(ctx context.Context, ownerID string) ([]byte, int, error) {
	tempDir, err := os.MkdirTemp("", "deck_compile_*")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outputPath := filepath.Join(tempDir, "deck.apkg")
	cards, err := c.CompileToFile(ctx, ownerID, outputPath)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read compiled deck: %w", err)
	}
	return data, cards, nil
}

// CompileToFile builds the deck for ownerID into outputPath and returns
// the number of cards written.
func (c *Compiler) CompileToFile(ctx context.Context, ownerID, outputPath string) (int, error) {
	entries, err := c.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to load entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, ErrEmptyCollection
	}

	mediaDir, err := os.MkdirTemp("", "deck_media_*")
	if err != nil {
		return 0, fmt.Errorf("failed to create media directory: %w", err)
	}
	defer os.RemoveAll(mediaDir)

	gen := NewAPKGGenerator(c.deckName)
	for i := range entries {
		e := &entries[i]
		if !e.Enriched() {
			continue
		}
		gen.AddCard(*c.buildCard(ctx, e, mediaDir))
	}

	if gen.CardCount() == 0 {
		return 0, ErrEmptyCollection
	}
	if err := gen.GenerateAPKG(outputPath); err != nil {
		return 0, err
	}
	return gen.CardCount(), nil
}

// buildCard turns one entry into a card, fetching its audio blobs into
// mediaDir. A missing or unreadable audio blob degrades to a card without
// that audio; it never fails the export.
func (c *Compiler) buildCard(ctx context.Context, e *entry.LanguageEntry, mediaDir string) *Card {
	card := &Card{
		GUID:        "ws_" + e.ID,
		Word:        e.Query,
		Definition:  html.EscapeString(e.Definition),
		Translation: html.EscapeString(e.Translation),
	}

	if e.AudioKey != "" {
		if path := c.fetchMedia(ctx, e.AudioKey, mediaDir); path != "" {
			card.AudioFile = path
		}
	}

	var examples strings.Builder
	if len(e.Examples) > 0 {
		examples.WriteString("<ul>")
		for _, ex := range e.Examples {
			examples.WriteString("<li>")
			examples.WriteString(html.EscapeString(ex.Text))
			examples.WriteString("<br><i>")
			examples.WriteString(html.EscapeString(ex.Translation))
			examples.WriteString("</i>")
			if ex.AudioKey != "" {
				if path := c.fetchMedia(ctx, ex.AudioKey, mediaDir); path != "" {
					card.ExtraMedia = append(card.ExtraMedia, path)
					fmt.Fprintf(&examples, "<br>[sound:%s]", filepath.Base(path))
				}
			}
			examples.WriteString("</li>")
		}
		examples.WriteString("</ul>")
	}
	card.Examples = examples.String()

	return card
}

func (c *Compiler) fetchMedia(ctx context.Context, key, mediaDir string) string {
	data, err := c.blobs.Get(ctx, key)
	if err != nil {
		return ""
	}
	// Audio keys end in a content hash, so the base name is unique within
	// the deck.
	path := filepath.Join(mediaDir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return ""
	}
	return path
}
