package printer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/status"
	"github.com/nerrad567/printwatch-core/internal/textscan"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns all printer state. It wraps a Repository with an
// in-memory cache and serialises mutations per printer ID, so a check
// cycle and an API call touching the same printer never interleave,
// while different printers mutate concurrently without coordination.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the mutating operations. All public methods are thread-safe.
type Registry struct {
	repo    Repository
	catalog *catalog.Catalog

	cache   map[string]*Device
	cacheMu sync.RWMutex

	locks   map[string]*sync.Mutex
	locksMu sync.Mutex

	logger Logger
}

// NewRegistry creates a new printer registry. The repository is used
// for persistence; the catalog resolves observed error codes to
// descriptors.
func NewRegistry(repo Repository, cat *catalog.Catalog) *Registry {
	return &Registry{
		repo:    repo,
		catalog: cat,
		cache:   make(map[string]*Device),
		locks:   make(map[string]*sync.Mutex),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all printers, their history, and their error
// ledgers from the repository into the cache. This should be called on
// application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading printers: %w", err)
	}

	fresh := make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		if d.History, err = r.repo.ListHistory(ctx, d.ID, HistoryLimit); err != nil {
			return fmt.Errorf("loading history for %s: %w", d.ID, err)
		}
		if d.Errors, err = r.repo.ListErrors(ctx, d.ID); err != nil {
			return fmt.Errorf("loading error ledger for %s: %w", d.ID, err)
		}
		fresh[d.ID] = d.DeepCopy()
	}

	r.cacheMu.Lock()
	r.cache = fresh
	r.cacheMu.Unlock()

	r.logger.Info("printer cache refreshed", "count", len(devices))
	return nil
}

// Add registers a new printer. The printer starts in the Offline state
// with empty history and error ledger; its first check cycle will move
// it to a live status.
//
// Parameters:
//   - ctx: request-scoped context for the persistence write.
//   - cfg: caller-supplied printer fields.
//
// Returns:
//   - *Device: the created printer, a copy safe to retain.
//   - error: validation or persistence failure.
func (r *Registry) Add(ctx context.Context, cfg AddConfig) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := &Device{
		ID:        uuid.New().String(),
		Name:      cfg.Name,
		Location:  cfg.Location,
		Model:     cfg.Model,
		Address:   cfg.Address,
		Status:    status.Offline,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("printer registered", "printer_id", d.ID, "name", d.Name, "address", d.Address)
	return d.DeepCopy(), nil
}

// Remove deletes a printer together with its history and error ledger.
// Returns ErrPrinterNotFound if the printer does not exist.
func (r *Registry) Remove(ctx context.Context, id string) error {
	lock := r.deviceLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.locksMu.Lock()
	delete(r.locks, id)
	r.locksMu.Unlock()

	r.logger.Info("printer removed", "printer_id", id)
	return nil
}

// Get retrieves a printer by ID. The returned device is a deep copy;
// callers can safely modify it. Returns ErrPrinterNotFound if the
// printer does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}

	d, err := r.loadFull(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = d.DeepCopy()
	r.cacheMu.Unlock()
	return d, nil
}

// List retrieves all printers ordered by name. The returned devices are
// deep copies; callers can safely modify them.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	devices := make([]Device, 0, len(r.cache))
	for _, d := range r.cache {
		devices = append(devices, *d.DeepCopy())
	}
	r.cacheMu.RUnlock()

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// IDs returns the IDs of all registered printers, in no particular
// order. Used by the monitor for fan-out without copying full records.
func (r *Registry) IDs() []string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids
}

// ApplyCheckResult is the single mutation entry point for a completed
// check cycle. It updates status, message, and check timestamp; appends
// a history entry only when the status changed; and records any error
// codes carried by the hint or embedded in the message, resolving each
// against the catalog. Codes already open in the ledger are not
// duplicated.
//
// Parameters:
//   - ctx: context for the persistence writes.
//   - id: printer ID.
//   - st: canonical status produced by the classifier.
//   - message: human-readable status message, may embed error codes.
//   - codeHint: error code extracted from the payload, may be empty.
//
// Returns:
//   - *Device: the updated printer, a copy safe to retain.
//   - error: ErrPrinterNotFound or a persistence failure.
func (r *Registry) ApplyCheckResult(ctx context.Context, id string, st status.Status, message, codeHint string) (*Device, error) {
	lock := r.deviceLock(id)
	lock.Lock()
	defer lock.Unlock()

	d, err := r.cachedOrLoad(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// The first completed check always seeds the history, even when the
	// observed status matches the registration default. After that only
	// transitions are recorded.
	changed := d.Status != st || d.LastCheckedAt == nil

	// Gather codes from the dedicated hint and from the message text,
	// keeping first-occurrence order.
	var codes []string
	if codeHint != "" {
		codes = append(codes, codeHint)
	}
	for _, c := range textscan.ExtractCodes(message) {
		if c != codeHint {
			codes = append(codes, c)
		}
	}

	unresolved := d.UnresolvedCodes()
	var newEntries []ErrorCodeEntry
	for _, code := range codes {
		if unresolved[code] {
			d.LastErrorCode = code
			continue
		}
		desc := r.catalog.Lookup(code, d.Model)
		entry := ErrorCodeEntry{
			Code:        code,
			Description: desc.Description,
			Severity:    desc.Severity,
			Category:    desc.Category,
			Solution:    desc.Solution,
			FirstSeen:   now,
		}
		newEntries = append(newEntries, entry)
		unresolved[code] = true
		d.LastErrorCode = code
	}

	d.Status = st
	d.Message = message
	d.LastCheckedAt = &now
	d.UpdatedAt = now

	rec := CheckRecord{
		Status:        st,
		Message:       message,
		LastErrorCode: d.LastErrorCode,
		CheckedAt:     now,
		NewErrors:     newEntries,
	}
	if changed {
		rec.History = &StatusHistoryEntry{
			Timestamp: now,
			Status:    st,
			Message:   message,
			ErrorCode: d.LastErrorCode,
		}
	}
	if err := r.repo.RecordCheck(ctx, id, rec); err != nil {
		return nil, err
	}

	if rec.History != nil {
		d.History = append(d.History, *rec.History)
		if len(d.History) > HistoryLimit {
			d.History = d.History[len(d.History)-HistoryLimit:]
		}
	}
	for _, entry := range newEntries {
		d.Errors = append(d.Errors, entry)
		r.logger.Warn("error code recorded", "printer_id", id, "code", entry.Code, "severity", entry.Severity)
	}

	r.storeCache(d)
	r.logger.Debug("check result applied", "printer_id", id, "status", st, "changed", changed)
	return d.DeepCopy(), nil
}

// ResolveError marks the unresolved ledger entry for code resolved.
// Calling it again for the same code is a no-op; resolution never
// reopens. A missing entry is not an error.
func (r *Registry) ResolveError(ctx context.Context, id, code string) (*Device, error) {
	lock := r.deviceLock(id)
	lock.Lock()
	defer lock.Unlock()

	d, err := r.cachedOrLoad(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transitioned, err := r.repo.ResolveError(ctx, id, code, now)
	if err != nil {
		return nil, err
	}

	if transitioned {
		for i := range d.Errors {
			if d.Errors[i].Code == code && !d.Errors[i].Resolved {
				d.Errors[i].Resolved = true
				t := now
				d.Errors[i].ResolvedAt = &t
				break
			}
		}
		r.storeCache(d)
		r.logger.Info("error code resolved", "printer_id", id, "code", code)
	}
	return d.DeepCopy(), nil
}

// History returns up to limit history entries for a printer, oldest
// first. A non-positive limit returns the full retained log.
func (r *Registry) History(ctx context.Context, id string, limit int) ([]StatusHistoryEntry, error) {
	d, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := d.History
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Stats summarises the registry for health and dashboard endpoints.
type Stats struct {
	Total            int                   `json:"total"`
	ByStatus         map[status.Status]int `json:"by_status"`
	UnresolvedErrors int                   `json:"unresolved_errors"`
}

// GetStats returns aggregate counts over all registered printers.
func (r *Registry) GetStats() Stats {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	stats := Stats{ByStatus: make(map[status.Status]int)}
	for _, d := range r.cache {
		stats.Total++
		stats.ByStatus[d.Status]++
		for _, e := range d.Errors {
			if !e.Resolved {
				stats.UnresolvedErrors++
			}
		}
	}
	return stats
}

// deviceLock returns the mutation lock for a printer ID, creating it on
// first use.
func (r *Registry) deviceLock(id string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// cachedOrLoad returns a private working copy of a printer for a
// mutation already holding the device lock.
func (r *Registry) cachedOrLoad(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}
	return r.loadFull(ctx, id)
}

// loadFull assembles a printer with history and ledger from the
// repository.
func (r *Registry) loadFull(ctx context.Context, id string) (*Device, error) {
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.History, err = r.repo.ListHistory(ctx, id, HistoryLimit); err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if d.Errors, err = r.repo.ListErrors(ctx, id); err != nil {
		return nil, fmt.Errorf("loading error ledger: %w", err)
	}
	return d, nil
}

func (r *Registry) storeCache(d *Device) {
	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()
}
