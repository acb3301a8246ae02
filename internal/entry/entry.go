package entry

import (
	"strings"
	"time"
)

// Example is one usage example with its translation. AudioKey points at
// synthesized pronunciation audio in the blob store and may be empty.
type Example struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
	AudioKey    string `json:"audio_key,omitempty"`
}

// LanguageEntry is a persisted enrichment record for one query by one user.
// Definition, Translation and Examples are empty until enrichment succeeds;
// AudioKey stays empty when speech synthesis failed or has not run yet.
type LanguageEntry struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Query       string    `json:"query"`
	Definition  string    `json:"definition,omitempty"`
	Translation string    `json:"translation,omitempty"`
	Examples    []Example `json:"examples,omitempty"`
	AudioKey    string    `json:"audio_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Enriched reports whether the text fields have been populated.
func (e *LanguageEntry) Enriched() bool {
	return e.Definition != "" && e.Translation != ""
}

// Complete reports whether the entry has both text fields and pronunciation
// audio. The submitter only short-circuits duplicate requests for complete
// entries, so an entry that lost its audio to a synthesis failure gets
// another chance on the next submit.
func (e *LanguageEntry) Complete() bool {
	return e.Enriched() && e.AudioKey != ""
}

// NormalizeQuery derives the canonical query text used for deduplication:
// surrounding whitespace removed, inner whitespace collapsed, case-folded.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
