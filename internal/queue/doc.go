// Package queue provides the at-least-once work queue the enrichment
// pipeline runs on. A received message is leased for a visibility window:
// until it is deleted it will become receivable again once the lease
// expires, so a crashed consumer loses no work. Consumers report success
// per message by deleting it; anything else is redelivered.
package queue
