// Package database provides SQLite-based storage for clfetch search history.
//
// This package implements the HistoryDB, which stores:
//   - One row per completed search run (site, category, query, timings)
//   - One row per listing extracted during a run
//
// Saved history is output only: nothing in the fetch path reads it back to
// short-circuit a request.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
