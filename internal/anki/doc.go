// Package anki compiles a user's persisted entries into a self-contained
// Anki package (.apkg): a zip holding an SQLite collection plus the
// referenced pronunciation audio, playable offline by any Anki client.
package anki
