// Package submit implements the synchronous front door of the enrichment
// pipeline: validate the raw text, check the deduplication index and either
// hand back the existing entry or enqueue work. It never waits for the
// worker.
package submit

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/queue"
	"codeberg.org/snonux/wortschatz/internal/store"
)

// MaxQueryLength is the longest accepted fragment, in runes.
const MaxQueryLength = 200

// ValidationError reports rejected input. It is surfaced to the user
// synchronously and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// Outcome of a submission.
type Outcome int

const (
	// Accepted means an enrichment request was enqueued.
	Accepted Outcome = iota
	// AlreadyExists means a fully enriched entry already covers the query.
	AlreadyExists
)

// Result is the synchronous answer to a submission.
type Result struct {
	Outcome Outcome
	Query   string
	// Entry is the existing entry when Outcome is AlreadyExists.
	Entry *entry.LanguageEntry
}

// Submitter validates, deduplicates and enqueues enrichment requests.
type Submitter struct {
	store *store.Store
	queue queue.Queue
}

// New creates a submitter over the entry store and work queue.
func New(st *store.Store, q queue.Queue) *Submitter {
	return &Submitter{store: st, queue: q}
}

// Submit accepts one raw text fragment for ownerID. It returns
// AlreadyExists without enqueueing when a complete entry (text fields and
// audio) is already persisted for the normalized query; an entry that is
// missing its audio is deliberately resubmitted, which is the recovery path
// for synthesis failures. Enqueue failures surface as queue.ErrUnavailable
// so the caller can retry; no accepted request is lost silently.
func (s *Submitter) Submit(ctx context.Context, ownerID, rawText string) (*Result, error) {
	if ownerID == "" {
		return nil, &ValidationError{Reason: "missing owner"}
	}

	query := entry.NormalizeQuery(rawText)
	if query == "" {
		return nil, &ValidationError{Reason: "empty text"}
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("text exceeds %d characters", MaxQueryLength)}
	}

	existing, err := s.store.GetByOwnerQuery(ctx, ownerID, query)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if existing != nil && existing.Complete() {
		return &Result{Outcome: AlreadyExists, Query: query, Entry: existing}, nil
	}

	req := entry.EnrichmentRequest{OwnerID: ownerID, Query: query}
	if prefs, err := s.store.GetPreferences(ctx, ownerID); err == nil {
		// Snapshot the study profile; the worker falls back to the store
		// when the snapshot is empty.
		req.Level = prefs.Level
		req.Context = prefs.Context
	}

	body, err := req.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.queue.Send(ctx, body); err != nil {
		return nil, err
	}

	return &Result{Outcome: Accepted, Query: query}, nil
}
