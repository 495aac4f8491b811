// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements several store interfaces through a single database connection:
//
//   - ReportStore: report documents and embedded chunks
//   - SnapshotStore / SnapshotWriter: category rankings, brand runs and review aspects
//   - SchedulerStore: scheduled task state and history
//
// # Vector search
//
// Embeddings are stored as little-endian float32 BLOBs. SearchChunks applies
// document type and report date filters in SQL and ranks the filtered rows by
// cosine similarity in Go.
//
// # Schema
//
// migrations/NNN_name.up.sql files are embedded and applied in version
// order, each in its own transaction. The .down.sql files are for manual
// rollback only.
//
// # Data Location
//
// By default, the database is stored at ~/.rankpulse/data/rankpulse.db
package sqlite
