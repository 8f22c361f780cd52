package printer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/status"
)

// timeFormat is the stored timestamp layout. RFC3339Nano round-trips
// exactly, which the history ordering invariant depends on.
const timeFormat = time.RFC3339Nano

// Repository defines the interface for printer persistence operations.
// This abstraction allows for different implementations (SQLite, mock,
// etc.) and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a printer row by its unique identifier,
	// without history or ledger entries.
	// Returns ErrPrinterNotFound if the printer does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all printer rows, without history or ledger
	// entries, ordered by name.
	List(ctx context.Context) ([]Device, error)

	// Create inserts a new printer.
	// Returns ErrPrinterExists if the ID is already taken.
	Create(ctx context.Context, d *Device) error

	// Delete removes a printer and, via cascade, its history and
	// error ledger. Returns ErrPrinterNotFound if absent.
	Delete(ctx context.Context, id string) error

	// RecordCheck persists the outcome of one completed check
	// atomically: the printer row update, the optional history entry
	// (with eviction beyond HistoryLimit), and any new ledger entries
	// commit or roll back together.
	// Returns ErrPrinterNotFound if the printer does not exist.
	RecordCheck(ctx context.Context, id string, rec CheckRecord) error

	// ListHistory returns up to limit entries for a printer, oldest
	// first.
	ListHistory(ctx context.Context, id string, limit int) ([]StatusHistoryEntry, error)

	// ListErrors returns all ledger entries for a printer, oldest
	// first.
	ListErrors(ctx context.Context, id string) ([]ErrorCodeEntry, error)

	// ResolveError marks the unresolved entry for code resolved.
	// Returns true when an entry was transitioned, false when no
	// unresolved entry existed.
	ResolveError(ctx context.Context, id, code string, resolvedAt time.Time) (bool, error)
}

// CheckRecord carries everything a completed check persists in one
// atomic write.
type CheckRecord struct {
	Status        status.Status
	Message       string
	LastErrorCode string
	CheckedAt     time.Time

	// History is the entry to append, nil when the check produced no
	// status transition.
	History *StatusHistoryEntry

	// NewErrors holds ledger entries for codes first observed by this
	// check. A concurrent duplicate of an already-open code is
	// absorbed by the ledger's uniqueness rule, not an error.
	NewErrors []ErrorCodeEntry
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const printerColumns = `id, name, location, model, address, status, message,
	last_error_code, last_checked_at, created_at, updated_at`

// GetByID retrieves a printer row by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + printerColumns + ` FROM printers WHERE id = ?`

	d, err := scanPrinter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrinterNotFound
		}
		return nil, fmt.Errorf("querying printer by id: %w", err)
	}
	return d, nil
}

// List retrieves all printer rows ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + printerColumns + ` FROM printers ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying printers: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanPrinter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning printer: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating printers: %w", err)
	}
	return devices, nil
}

// Create inserts a new printer.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `
		INSERT INTO printers (` + printerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Location, d.Model, d.Address,
		string(d.Status), d.Message, d.LastErrorCode,
		nullableTime(d.LastCheckedAt),
		d.CreatedAt.Format(timeFormat), d.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPrinterExists
		}
		return fmt.Errorf("inserting printer: %w", err)
	}
	return nil
}

// Delete removes a printer; history and ledger rows go with it through
// the foreign key cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM printers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting printer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrPrinterNotFound
	}
	return nil
}

// RecordCheck persists one completed check in a single transaction, so
// a failure partway through never leaves the printer row updated with
// its history or ledger missing.
func (r *SQLiteRepository) RecordCheck(ctx context.Context, id string, rec CheckRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning check transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE printers
		SET status = ?, message = ?, last_error_code = ?,
			last_checked_at = ?, updated_at = ?
		WHERE id = ?`,
		string(rec.Status), rec.Message, rec.LastErrorCode,
		rec.CheckedAt.Format(timeFormat), time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating printer status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrPrinterNotFound
	}

	if rec.History != nil {
		if err := appendHistoryTx(ctx, tx, id, *rec.History); err != nil {
			return err
		}
	}

	for _, entry := range rec.NewErrors {
		// The partial unique index on (printer_id, code) WHERE
		// resolved = 0 makes a duplicate observation a no-op.
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO error_ledger
				(printer_id, code, description, severity, category, solution, resolved, first_seen, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, NULL)`,
			id, entry.Code, entry.Description, string(entry.Severity),
			string(entry.Category), entry.Solution,
			entry.FirstSeen.Format(timeFormat))
		if err != nil {
			return fmt.Errorf("inserting error entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing check transaction: %w", err)
	}
	return nil
}

// appendHistoryTx adds one history entry and trims the log to
// HistoryLimit, oldest rows first.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, id string, entry StatusHistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO status_history (printer_id, status, message, error_code, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, string(entry.Status), entry.Message, entry.ErrorCode,
		entry.Timestamp.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}

	// Ring-buffer semantics: keep only the newest HistoryLimit rows.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM status_history
		WHERE printer_id = ?
		AND id NOT IN (
			SELECT id FROM status_history
			WHERE printer_id = ?
			ORDER BY id DESC
			LIMIT ?
		)`, id, id, HistoryLimit)
	if err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}
	return nil
}

// ListHistory returns up to limit entries for a printer, oldest first.
func (r *SQLiteRepository) ListHistory(ctx context.Context, id string, limit int) ([]StatusHistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	// Select the newest rows, then flip to oldest-first.
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, message, error_code, created_at
		FROM (
			SELECT id, status, message, error_code, created_at
			FROM status_history
			WHERE printer_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []StatusHistoryEntry
	for rows.Next() {
		var e StatusHistoryEntry
		var st, createdAt string
		if err := rows.Scan(&st, &e.Message, &e.ErrorCode, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Status = status.Status(st)
		e.Timestamp, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing history timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// ListErrors returns all ledger entries for a printer, oldest first.
func (r *SQLiteRepository) ListErrors(ctx context.Context, id string) ([]ErrorCodeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, description, severity, category, solution, resolved, first_seen, resolved_at
		FROM error_ledger
		WHERE printer_id = ?
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying error ledger: %w", err)
	}
	defer rows.Close()

	var entries []ErrorCodeEntry
	for rows.Next() {
		var e ErrorCodeEntry
		var severity, category, firstSeen string
		var resolved int
		var resolvedAt sql.NullString
		if err := rows.Scan(&e.Code, &e.Description, &severity, &category,
			&e.Solution, &resolved, &firstSeen, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scanning error entry: %w", err)
		}
		e.Severity = catalog.Severity(severity)
		e.Category = catalog.Category(category)
		e.Resolved = resolved != 0
		e.FirstSeen, err = time.Parse(timeFormat, firstSeen)
		if err != nil {
			return nil, fmt.Errorf("parsing first_seen: %w", err)
		}
		if resolvedAt.Valid {
			t, err := time.Parse(timeFormat, resolvedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing resolved_at: %w", err)
			}
			e.ResolvedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating error ledger: %w", err)
	}
	return entries, nil
}

// ResolveError marks the unresolved entry for code resolved. Resolution
// is one-directional; an already-resolved entry is never touched.
func (r *SQLiteRepository) ResolveError(ctx context.Context, id, code string, resolvedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE error_ledger
		SET resolved = 1, resolved_at = ?
		WHERE printer_id = ? AND code = ? AND resolved = 0`,
		resolvedAt.Format(timeFormat), id, code)
	if err != nil {
		return false, fmt.Errorf("resolving error entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking resolve result: %w", err)
	}
	return n > 0, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPrinter(row scanner) (*Device, error) {
	var d Device
	var st, createdAt, updatedAt string
	var lastCheckedAt sql.NullString

	err := row.Scan(&d.ID, &d.Name, &d.Location, &d.Model, &d.Address,
		&st, &d.Message, &d.LastErrorCode, &lastCheckedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.Status = status.Status(st)
	if d.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if lastCheckedAt.Valid {
		t, err := time.Parse(timeFormat, lastCheckedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_checked_at: %w", err)
		}
		d.LastCheckedAt = &t
	}
	return &d, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeFormat)
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure without binding to driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
