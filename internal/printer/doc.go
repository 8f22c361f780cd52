// Package printer holds the canonical printer records and the Registry
// that owns them.
//
// A Device carries identity, current status, a bounded status history
// (ring-buffer, newest HistoryLimit entries), and an error-code ledger
// where at most one unresolved entry exists per code. The Registry is
// the single mutation path: check cycles land through ApplyCheckResult,
// operators resolve codes through ResolveError, and both are serialised
// per printer ID while different printers proceed concurrently.
//
// Persistence goes through the Repository interface; SQLiteRepository
// is the production implementation, and the schema enforces the
// one-unresolved-entry-per-code invariant with a partial unique index.
package printer
