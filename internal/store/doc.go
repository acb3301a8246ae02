// Package store persists language entries and user preferences in SQLite.
//
// The (owner_id, query) uniqueness invariant is enforced by the write
// path: the lookup and the write run in one immediate transaction rather
// than under a database constraint. The upsert merges field by field, so
// a redelivered request can only fill gaps in an existing row, never
// erase what an earlier attempt persisted.
package store
