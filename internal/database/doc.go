// Package database provides SQLite-based storage for extracted records.
//
// The Store keeps every identity found across runs in a single table,
// unique per (identity, source query) pair, so re-running a query set
// folds new findings into the existing data instead of duplicating it.
// It plugs into sessions as an additional record sink next to the flat
// output file.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
