// Package entry defines the core data model: language entries produced by
// the enrichment pipeline, per-user study preferences and the normalization
// rules that make entries deduplicatable.
package entry
