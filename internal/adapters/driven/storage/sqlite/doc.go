// Package sqlite persists vector index snapshots in SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// index_meta holds the dimensionality and model; chunks holds one row per
// indexed chunk with its embedding as a little-endian float32 BLOB. The seq
// column preserves insertion order.
//
// # Data Location
//
// A snapshot lives at <index_dir>/index.db.
//
// # Atomicity
//
// Save builds a complete database in a temporary file next to the target,
// syncs it and renames it over index.db. Readers see either the previous
// snapshot or the new one, never a mix.
package sqlite
