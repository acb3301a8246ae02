package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/wortschatz/internal/entry"
)

// ErrNotFound is returned when no entry matches a lookup.
var ErrNotFound = errors.New("entry not found")

// Store is a SQLite-backed entry and preferences store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*Store, error) {
	// _txlock=immediate takes the write lock at BEGIN so upsert
	// transactions serialize, and the busy timeout lets concurrent
	// writers queue instead of failing fast.
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			query TEXT NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			translation TEXT NOT NULL DEFAULT '',
			examples TEXT NOT NULL DEFAULT '[]',
			audio_key TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		// Secondary lookup index over the normalized query, scoped by owner
		// in the lookup itself. Deliberately not UNIQUE, see package doc.
		`CREATE INDEX IF NOT EXISTS idx_entries_query ON entries (query)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_owner ON entries (owner_id)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			user_id TEXT PRIMARY KEY,
			level TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

const entryColumns = `id, owner_id, query, definition, translation, examples, audio_key, created_at`

func scanEntry(row interface{ Scan(...any) error }) (*entry.LanguageEntry, error) {
	var e entry.LanguageEntry
	var examples string
	var createdAt int64

	err := row.Scan(&e.ID, &e.OwnerID, &e.Query, &e.Definition, &e.Translation,
		&examples, &e.AudioKey, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(examples), &e.Examples); err != nil {
		return nil, fmt.Errorf("failed to decode examples for entry %s: %w", e.ID, err)
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &e, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, so lookups can run
// standalone or inside the upsert transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetByOwnerQuery looks up an entry by its normalized query scoped to one
// owner. This is the deduplication index lookup.
func (s *Store) GetByOwnerQuery(ctx context.Context, ownerID, query string) (*entry.LanguageEntry, error) {
	return getByOwnerQuery(ctx, s.db, ownerID, query)
}

func getByOwnerQuery(ctx context.Context, q querier, ownerID, query string) (*entry.LanguageEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE query = ? AND owner_id = ? LIMIT 1`,
		query, ownerID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up entry: %w", err)
	}
	return e, nil
}

// GetByID retrieves an entry by its identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*entry.LanguageEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

// ListByOwner returns all entries for one owner, oldest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]entry.LanguageEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []entry.LanguageEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// Upsert writes e keyed by (owner_id, query). When an entry already exists
// for that pair the existing row is updated in place: non-empty fields of e
// win, empty ones keep what is stored, so a redelivered request that lost
// its audio cannot erase audio persisted by an earlier attempt. The ID and
// creation time of the persisted row are written back into e.
func (s *Store) Upsert(ctx context.Context, e *entry.LanguageEntry) error {
	// Lookup and write run in one immediate transaction so two workers
	// handling duplicate deliveries cannot both pass the not-found check
	// and insert a second row.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	if err := upsertInTx(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

func upsertInTx(ctx context.Context, tx querier, e *entry.LanguageEntry) error {
	existing, err := getByOwnerQuery(ctx, tx, e.OwnerID, e.Query)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing != nil {
		merged := mergeEntry(existing, e)
		examples, err := json.Marshal(merged.Examples)
		if err != nil {
			return fmt.Errorf("failed to encode examples: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE entries SET definition = ?, translation = ?, examples = ?, audio_key = ? WHERE id = ?`,
			merged.Definition, merged.Translation, string(examples), merged.AudioKey, merged.ID)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}
		*e = *merged
		return nil
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Examples == nil {
		e.Examples = []entry.Example{}
	}
	examples, err := json.Marshal(e.Examples)
	if err != nil {
		return fmt.Errorf("failed to encode examples: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Query, e.Definition, e.Translation,
		string(examples), e.AudioKey, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func mergeEntry(existing, incoming *entry.LanguageEntry) *entry.LanguageEntry {
	merged := *existing
	if incoming.Definition != "" {
		merged.Definition = incoming.Definition
	}
	if incoming.Translation != "" {
		merged.Translation = incoming.Translation
	}
	if len(incoming.Examples) > 0 {
		merged.Examples = incoming.Examples
	}
	if incoming.AudioKey != "" {
		merged.AudioKey = incoming.AudioKey
	}
	return &merged
}

// GetPreferences returns the stored preferences for userID, or the
// documented defaults when the user has none.
func (s *Store) GetPreferences(ctx context.Context, userID string) (entry.UserPreferences, error) {
	var p entry.UserPreferences
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, level, context FROM preferences WHERE user_id = ?`, userID)

	err := row.Scan(&p.UserID, &p.Level, &p.Context)
	if errors.Is(err, sql.ErrNoRows) {
		return entry.DefaultPreferences(userID), nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to get preferences: %w", err)
	}
	return p, nil
}

// PutPreferences creates or replaces a user's preferences.
func (s *Store) PutPreferences(ctx context.Context, p entry.UserPreferences) error {
	if !entry.ValidLevel(p.Level) {
		return fmt.Errorf("invalid CEFR level: %q", p.Level)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, level, context) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET level = excluded.level, context = excluded.context`,
		p.UserID, p.Level, p.Context)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
