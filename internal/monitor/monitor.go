package monitor

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the poll period used when the caller does not
// supply one.
const DefaultInterval = 30 * time.Second

// Monitor drives periodic check cycles over all registered printers.
// It is a two-state machine, stopped or running; starting while running
// replaces the previous timer, and Stop is idempotent.
type Monitor struct {
	checker *Checker
	logger  Logger

	mu       sync.Mutex
	running  bool
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a stopped Monitor driving the given checker.
func New(checker *Checker) *Monitor {
	return &Monitor{
		checker: checker,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Start begins periodic polling at the given interval. A non-positive
// interval falls back to DefaultInterval. If the monitor is already
// running, the previous timer is stopped first so there is never more
// than one.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	if m.running {
		m.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.interval = interval
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	m.logger.Info("monitoring started", "interval", interval)
	go m.run(ctx, interval, done)
}

// Stop halts polling. Any check cycle already in flight runs to
// completion. Calling Stop on a stopped monitor does nothing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// stopLocked requires m.mu to be held.
func (m *Monitor) stopLocked() {
	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.running = false
	m.cancel = nil
	m.done = nil
	m.logger.Info("monitoring stopped")
}

// IsRunning reports whether the monitor is polling.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Interval returns the active poll period, or zero when stopped.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return 0
	}
	return m.interval
}

// run is the polling loop. Each tick fans out one check cycle and waits
// for it; the ticker keeps its fixed schedule regardless, and the
// checker's per-device in-flight guard keeps overlapping cycles from
// piling onto a slow printer.
func (m *Monitor) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			devices := m.checker.CheckAll(ctx)
			m.logger.Debug("check cycle completed", "printers", len(devices))
		}
	}
}
