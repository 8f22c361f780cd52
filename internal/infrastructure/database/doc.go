// Package database provides SQLite connection management for PrintWatch Core.
//
// It wraps database/sql with:
//   - Connection configuration (WAL mode, busy timeout, foreign keys)
//   - Embedded SQL migration support with per-migration transactions
//   - Health checks for startup verification
//
// SQLite is configured with a single writer connection, which matches
// SQLite's locking model and keeps repository code free of retry loops.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "data/printwatch.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
