package monitor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/fetch"
	"github.com/nerrad567/printwatch-core/internal/printer"
	"github.com/nerrad567/printwatch-core/internal/status"
)

// memRepo is an in-memory printer.Repository for pipeline tests.
type memRepo struct {
	mu       sync.Mutex
	printers map[string]*printer.Device
	history  map[string][]printer.StatusHistoryEntry
	ledger   map[string][]printer.ErrorCodeEntry
}

func newMemRepo() *memRepo {
	return &memRepo{
		printers: make(map[string]*printer.Device),
		history:  make(map[string][]printer.StatusHistoryEntry),
		ledger:   make(map[string][]printer.ErrorCodeEntry),
	}
}

func (m *memRepo) GetByID(_ context.Context, id string) (*printer.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.printers[id]; ok {
		cpy := *d
		return &cpy, nil
	}
	return nil, printer.ErrPrinterNotFound
}

func (m *memRepo) List(_ context.Context) ([]printer.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]printer.Device, 0, len(m.printers))
	for _, d := range m.printers {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, d *printer.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.printers[d.ID]; ok {
		return printer.ErrPrinterExists
	}
	cpy := *d
	m.printers[d.ID] = &cpy
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.printers[id]; !ok {
		return printer.ErrPrinterNotFound
	}
	delete(m.printers, id)
	return nil
}

func (m *memRepo) RecordCheck(_ context.Context, id string, rec printer.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.printers[id]
	if !ok {
		return printer.ErrPrinterNotFound
	}
	d.Status = rec.Status
	d.Message = rec.Message
	d.LastErrorCode = rec.LastErrorCode
	t := rec.CheckedAt
	d.LastCheckedAt = &t

	if rec.History != nil {
		h := append(m.history[id], *rec.History)
		if len(h) > printer.HistoryLimit {
			h = h[len(h)-printer.HistoryLimit:]
		}
		m.history[id] = h
	}

	for _, entry := range rec.NewErrors {
		dup := false
		for _, e := range m.ledger[id] {
			if e.Code == entry.Code && !e.Resolved {
				dup = true
				break
			}
		}
		if !dup {
			m.ledger[id] = append(m.ledger[id], entry)
		}
	}
	return nil
}

func (m *memRepo) ListHistory(_ context.Context, id string, limit int) ([]printer.StatusHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[id]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]printer.StatusHistoryEntry{}, h...), nil
}

func (m *memRepo) ListErrors(_ context.Context, id string) ([]printer.ErrorCodeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]printer.ErrorCodeEntry{}, m.ledger[id]...), nil
}

func (m *memRepo) ResolveError(_ context.Context, id, code string, resolvedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.ledger[id] {
		if e.Code == code && !e.Resolved {
			m.ledger[id][i].Resolved = true
			t := resolvedAt
			m.ledger[id][i].ResolvedAt = &t
			return true, nil
		}
	}
	return false, nil
}

// fakeProber answers with a fixed result, or panics on demand.
type fakeProber struct {
	reachable bool
	panicWith string
}

func (f *fakeProber) IsReachable(context.Context, string) bool {
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	return f.reachable
}

// fakeFetcher returns a fixed payload or error.
type fakeFetcher struct {
	res *fetch.Result
	err error
}

func (f *fakeFetcher) FetchStatus(context.Context, string, string) (*fetch.Result, error) {
	return f.res, f.err
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu       sync.Mutex
	statuses []status.Status
	codes    []string
}

func (p *recordingPublisher) PublishStatus(_ context.Context, d *printer.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, d.Status)
	return nil
}

func (p *recordingPublisher) PublishError(_ context.Context, _ *printer.Device, entry printer.ErrorCodeEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = append(p.codes, entry.Code)
	return nil
}

// recordingTelemetry captures forwarded supply levels and timings.
type recordingTelemetry struct {
	mu        sync.Mutex
	levels    map[string]float64
	durations int
}

func (r *recordingTelemetry) WriteSupplyLevels(_ *printer.Device, levels map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = levels
}

func (r *recordingTelemetry) WriteCheckDuration(string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func setupChecker(t *testing.T, prober Prober, fetcher Fetcher) (*Checker, *printer.Registry, string) {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	registry := printer.NewRegistry(newMemRepo(), cat)
	d, err := registry.Add(context.Background(), printer.AddConfig{
		Name:    "Front Desk",
		Model:   "HP LaserJet Pro M404dn",
		Address: "192.168.1.50",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return NewChecker(prober, fetcher, registry), registry, d.ID
}

func TestCheckDevice_Unreachable(t *testing.T) {
	c, _, id := setupChecker(t, &fakeProber{reachable: false}, &fakeFetcher{err: fetch.ErrStatusNotFound})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.Offline {
		t.Errorf("status = %v, want %v", d.Status, status.Offline)
	}
	if d.Message != unreachableMessage {
		t.Errorf("message = %q, want %q", d.Message, unreachableMessage)
	}
}

func TestCheckDevice_FetchExhaustedIsOptimistic(t *testing.T) {
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{err: fetch.ErrStatusNotFound})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.Ready {
		t.Errorf("status = %v, want %v", d.Status, status.Ready)
	}
	if d.Message != noStatusPageMessage {
		t.Errorf("message = %q, want %q", d.Message, noStatusPageMessage)
	}
}

func TestCheckDevice_UnrecognizedPayloadIsOptimistic(t *testing.T) {
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{
		res: &fetch.Result{Payload: []byte("lorem ipsum"), ContentType: "text/plain"},
	})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.Ready || d.Message != noStatusPageMessage {
		t.Errorf("got %v/%q, want ready with fallback message", d.Status, d.Message)
	}
}

func TestCheckDevice_FullPipeline(t *testing.T) {
	payload := []byte(`{"status":"error","error_code":"13.01","alerts":["Paper jam in input tray"]}`)
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{
		res: &fetch.Result{Payload: payload, ContentType: "application/json"},
	})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.PaperJam {
		t.Errorf("status = %v, want %v", d.Status, status.PaperJam)
	}
	if !strings.Contains(d.Message, "Paper jam in input tray") {
		t.Errorf("message = %q, want the alert text included", d.Message)
	}
	if d.LastErrorCode != "13.01" {
		t.Errorf("LastErrorCode = %q, want %q", d.LastErrorCode, "13.01")
	}
	if len(d.Errors) != 1 || d.Errors[0].Code != "13.01" {
		t.Errorf("errors = %+v, want one 13.01 entry", d.Errors)
	}
	if d.Errors[0].Category != catalog.CategoryPaper {
		t.Errorf("category = %v, want %v", d.Errors[0].Category, catalog.CategoryPaper)
	}
}

func TestCheckDevice_PanicRecoveredAsError(t *testing.T) {
	c, _, id := setupChecker(t, &fakeProber{panicWith: "connection reset by peer"}, &fakeFetcher{})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.Error {
		t.Errorf("status = %v, want %v", d.Status, status.Error)
	}
	if !strings.Contains(d.Message, "connection reset by peer") {
		t.Errorf("message = %q, want the panic text", d.Message)
	}
}

func TestCheckDevice_PublishesEvents(t *testing.T) {
	payload := []byte(`{"status":"error","error_code":"13.01"}`)
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{
		res: &fetch.Result{Payload: payload, ContentType: "application/json"},
	})
	pub := &recordingPublisher{}
	c.SetPublisher(pub)

	if _, err := c.CheckDevice(context.Background(), id); err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.statuses) != 1 || pub.statuses[0] != status.Error {
		t.Errorf("published statuses = %v, want [error]", pub.statuses)
	}
	if len(pub.codes) != 1 || pub.codes[0] != "13.01" {
		t.Errorf("published codes = %v, want [13.01]", pub.codes)
	}
}

func TestCheckDevice_FreeTextPageKeepsCodes(t *testing.T) {
	payload := []byte("Status: Error 13.01 - Paper jam in input tray")
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{
		res: &fetch.Result{Payload: payload, ContentType: "text/plain"},
	})

	d, err := c.CheckDevice(context.Background(), id)
	if err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}
	if d.Status != status.PaperJam {
		t.Errorf("status = %v, want %v", d.Status, status.PaperJam)
	}
	// The message carries the page text, not an internal status token.
	if !strings.Contains(d.Message, "Paper jam in input tray") {
		t.Errorf("message = %q, want the page text included", d.Message)
	}
	if d.Message == string(status.PaperJam) {
		t.Errorf("message = %q, must not be the raw status token", d.Message)
	}
	// Codes embedded in the page reach the ledger.
	if d.LastErrorCode != "13.01" {
		t.Errorf("LastErrorCode = %q, want %q", d.LastErrorCode, "13.01")
	}
	if len(d.Errors) != 1 || d.Errors[0].Code != "13.01" {
		t.Errorf("errors = %+v, want one 13.01 entry", d.Errors)
	}
}

func TestCheckDevice_StatusEventOnlyOnTransition(t *testing.T) {
	fetcher := &fakeFetcher{
		res: &fetch.Result{Payload: []byte(`{"status":"ready"}`), ContentType: "application/json"},
	}
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, fetcher)
	pub := &recordingPublisher{}
	c.SetPublisher(pub)

	ctx := context.Background()

	// The first completed check always announces, seeding subscribers.
	if _, err := c.CheckDevice(ctx, id); err != nil {
		t.Fatalf("first CheckDevice() error = %v", err)
	}
	// A repeat with the same status stays quiet.
	if _, err := c.CheckDevice(ctx, id); err != nil {
		t.Fatalf("second CheckDevice() error = %v", err)
	}

	pub.mu.Lock()
	statuses := append([]status.Status{}, pub.statuses...)
	pub.mu.Unlock()
	if len(statuses) != 1 || statuses[0] != status.Ready {
		t.Fatalf("published statuses = %v, want [ready]", statuses)
	}

	// A transition announces again.
	fetcher.res = &fetch.Result{Payload: []byte(`{"status":"paper jam"}`), ContentType: "application/json"}
	if _, err := c.CheckDevice(ctx, id); err != nil {
		t.Fatalf("third CheckDevice() error = %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.statuses) != 2 || pub.statuses[1] != status.PaperJam {
		t.Errorf("published statuses = %v, want [ready paper_jam]", pub.statuses)
	}
}

func TestCheckDevice_ForwardsSupplyLevels(t *testing.T) {
	payload := []byte(`{"status":"ready","supplies":{"black":17}}`)
	c, _, id := setupChecker(t, &fakeProber{reachable: true}, &fakeFetcher{
		res: &fetch.Result{Payload: payload, ContentType: "application/json"},
	})
	tel := &recordingTelemetry{}
	c.SetTelemetry(tel)

	if _, err := c.CheckDevice(context.Background(), id); err != nil {
		t.Fatalf("CheckDevice() error = %v", err)
	}

	tel.mu.Lock()
	defer tel.mu.Unlock()
	if tel.levels["black"] != 17 {
		t.Errorf("forwarded levels = %v, want black=17", tel.levels)
	}
	if tel.durations != 1 {
		t.Errorf("check duration written %d times, want 1", tel.durations)
	}
}

func TestCheckAll_OneFailureDoesNotBlockOthers(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	registry := printer.NewRegistry(newMemRepo(), cat)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := registry.Add(ctx, printer.AddConfig{
			Name:    string(rune('A' + i)),
			Address: "192.168.1.50",
		}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	c := NewChecker(&fakeProber{reachable: false}, &fakeFetcher{err: fetch.ErrStatusNotFound}, registry)
	devices := c.CheckAll(ctx)
	if len(devices) != 3 {
		t.Fatalf("CheckAll() returned %d devices, want 3", len(devices))
	}
	for _, d := range devices {
		if d.Status != status.Offline {
			t.Errorf("device %s status = %v, want offline", d.Name, d.Status)
		}
	}
}

func TestCheckAll_EmptyRegistry(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	registry := printer.NewRegistry(newMemRepo(), cat)

	c := NewChecker(&fakeProber{}, &fakeFetcher{}, registry)
	if devices := c.CheckAll(context.Background()); devices != nil {
		t.Errorf("CheckAll() on empty registry = %v, want nil", devices)
	}
}
