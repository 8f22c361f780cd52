package printer

import (
	"time"

	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/status"
)

// HistoryLimit caps the per-printer status history. The oldest entries
// are evicted first once the cap is reached.
const HistoryLimit = 50

// maxNameLength bounds printer display names.
const maxNameLength = 120

// Device represents a monitored printer. This matches the database
// schema in migrations/20260301_120000_initial_schema.up.sql.
//
// A Device is owned exclusively by the Registry; it is mutated only
// through Registry operations.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Placement and hardware
	Location string `json:"location,omitempty"`
	Model    string `json:"model,omitempty"`
	Address  string `json:"address"`

	// Current state
	Status        status.Status `json:"status"`
	Message       string        `json:"message,omitempty"`
	LastErrorCode string        `json:"last_error_code,omitempty"`
	LastCheckedAt *time.Time    `json:"last_checked_at,omitempty"`

	// Bounded status history, newest last.
	History []StatusHistoryEntry `json:"history,omitempty"`

	// Error ledger, unresolved and resolved entries together.
	Errors []ErrorCodeEntry `json:"errors,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusHistoryEntry is one recorded status transition.
type StatusHistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Status    status.Status `json:"status"`
	Message   string        `json:"message,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
}

// ErrorCodeEntry is one observed error code with its catalog metadata.
// At most one unresolved entry may exist per distinct code value on a
// given printer; resolution is one-directional and resolved entries are
// retained for audit.
type ErrorCodeEntry struct {
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Severity    catalog.Severity `json:"severity"`
	Category    catalog.Category `json:"category"`
	Solution    string           `json:"solution,omitempty"`
	Resolved    bool             `json:"resolved"`
	FirstSeen   time.Time        `json:"first_seen"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
}

// AddConfig carries the caller-supplied fields for registering a new
// printer. Everything else is initialised by the Registry.
type AddConfig struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Model    string `json:"model"`
	Address  string `json:"address"`
}

// DeepCopy creates a complete independent copy of the Device. Slice
// fields are cloned so modifications to the copy do not affect the
// original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.LastCheckedAt != nil {
		t := *d.LastCheckedAt
		cpy.LastCheckedAt = &t
	}
	if d.History != nil {
		cpy.History = make([]StatusHistoryEntry, len(d.History))
		copy(cpy.History, d.History)
	}
	if d.Errors != nil {
		cpy.Errors = make([]ErrorCodeEntry, len(d.Errors))
		copy(cpy.Errors, d.Errors)
		for i := range cpy.Errors {
			if cpy.Errors[i].ResolvedAt != nil {
				t := *cpy.Errors[i].ResolvedAt
				cpy.Errors[i].ResolvedAt = &t
			}
		}
	}
	return &cpy
}

// UnresolvedCodes returns the set of codes with an open ledger entry.
func (d *Device) UnresolvedCodes() map[string]bool {
	codes := make(map[string]bool)
	for _, e := range d.Errors {
		if !e.Resolved {
			codes[e.Code] = true
		}
	}
	return codes
}

// Validate checks an AddConfig before registration.
func (c AddConfig) Validate() error {
	if c.Name == "" || len(c.Name) > maxNameLength {
		return ErrInvalidName
	}
	if c.Address == "" {
		return ErrInvalidAddress
	}
	return nil
}
