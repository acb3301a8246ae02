// Package worker consumes enrichment requests from the work queue and runs
// the pipeline for each: resolve preferences, generate entry content,
// synthesize pronunciation audio and persist the entry. Success and terminal
// failures acknowledge the message; transient failures leave it for
// redelivery after the lease expires. Persistence is an idempotent upsert
// keyed by (owner, query), which is what makes at-least-once delivery safe.
package worker
