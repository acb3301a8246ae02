package entry

import (
	"encoding/json"
	"fmt"
)

// EnrichmentRequest is the queue message carrying one enrichment job. Level
// and Context are a snapshot of the submitter's view of the user's
// preferences; the worker falls back to the preference store when they are
// empty. The request is ephemeral and must stay safely reprocessable: the
// worker's persistence step is idempotent with respect to (OwnerID, Query).
type EnrichmentRequest struct {
	OwnerID string `json:"owner_id"`
	Query   string `json:"query"`
	Level   string `json:"level,omitempty"`
	Context string `json:"context,omitempty"`
}

// Encode serializes the request for the queue.
func (r EnrichmentRequest) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

// DecodeRequest parses a queue message body. A request missing its owner or
// query can never succeed and should be treated as terminally failed.
func DecodeRequest(data []byte) (EnrichmentRequest, error) {
	var r EnrichmentRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode request: %w", err)
	}
	if r.OwnerID == "" || r.Query == "" {
		return r, fmt.Errorf("request missing owner or query")
	}
	return r, nil
}
