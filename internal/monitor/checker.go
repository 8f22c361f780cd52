package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/printwatch-core/internal/fetch"
	"github.com/nerrad567/printwatch-core/internal/printer"
	"github.com/nerrad567/printwatch-core/internal/status"
)

// unreachableMessage is recorded when every probe technique failed.
const unreachableMessage = "Network unreachable"

// noStatusPageMessage is the low-confidence fallback for a device that
// answered a probe but served no readable status page. Reachability
// without detail is treated optimistically.
const noStatusPageMessage = "Online (no readable status page)"

// Prober reports whether anything at an address answered.
type Prober interface {
	IsReachable(ctx context.Context, address string) bool
}

// Fetcher retrieves a raw status payload from a device.
type Fetcher interface {
	FetchStatus(ctx context.Context, address, model string) (*fetch.Result, error)
}

// EventPublisher pushes status changes and new error codes to external
// consumers. Implementations must not block the check pipeline.
type EventPublisher interface {
	PublishStatus(ctx context.Context, d *printer.Device) error
	PublishError(ctx context.Context, d *printer.Device, entry printer.ErrorCodeEntry) error
}

// TelemetryWriter records consumable levels and check timings reported
// during a device check.
type TelemetryWriter interface {
	WriteSupplyLevels(d *printer.Device, levels map[string]float64)
	WriteCheckDuration(printerID string, duration time.Duration)
}

// Logger defines the logging interface used by the monitor package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Checker runs the full per-device pipeline: probe, fetch, normalize,
// classify, apply. One Checker serves all printers; per-device state
// lives in the registry.
type Checker struct {
	prober    Prober
	fetcher   Fetcher
	registry  *printer.Registry
	publisher EventPublisher
	telemetry TelemetryWriter
	logger    Logger

	// inFlight guards against the same printer being checked twice
	// concurrently when cycles overlap.
	inFlight sync.Map
}

// NewChecker creates a Checker. publisher and telemetry may be nil when
// the corresponding integration is disabled.
func NewChecker(prober Prober, fetcher Fetcher, registry *printer.Registry) *Checker {
	return &Checker{
		prober:   prober,
		fetcher:  fetcher,
		registry: registry,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the checker.
func (c *Checker) SetLogger(logger Logger) {
	c.logger = logger
}

// SetPublisher wires an event publisher for status and error events.
func (c *Checker) SetPublisher(p EventPublisher) {
	c.publisher = p
}

// SetTelemetry wires a telemetry writer for consumable levels.
func (c *Checker) SetTelemetry(t TelemetryWriter) {
	c.telemetry = t
}

// CheckDevice runs one full check for a single printer and returns the
// updated record. Pipeline failures degrade to a conservative status
// rather than surfacing as errors; an error return means the printer is
// unknown or persistence failed. A panic anywhere in the pipeline is
// caught at this boundary and recorded as an Error status, never
// propagated to the scheduler.
//
// Parameters:
//   - ctx: bounds the probe and fetch stages.
//   - id: printer ID.
//
// Returns:
//   - *printer.Device: the updated printer, a copy safe to retain.
//   - error: printer.ErrPrinterNotFound or a persistence failure.
func (c *Checker) CheckDevice(ctx context.Context, id string) (updated *printer.Device, err error) {
	if _, loaded := c.inFlight.LoadOrStore(id, struct{}{}); loaded {
		c.logger.Debug("check already in flight, skipping", "printer_id", id)
		return c.registry.Get(ctx, id)
	}
	defer c.inFlight.Delete(id)

	start := time.Now()
	defer func() {
		if c.telemetry != nil {
			c.telemetry.WriteCheckDuration(id, time.Since(start))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("check panicked", "printer_id", id, "panic", r)
			updated, err = c.apply(ctx, id, status.Error, fmt.Sprintf("%v", r), "")
		}
	}()

	d, err := c.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !c.prober.IsReachable(ctx, d.Address) {
		c.logger.Debug("printer unreachable", "printer_id", id, "address", d.Address)
		return c.applyAndPublish(ctx, id, status.Offline, unreachableMessage, "", d, nil)
	}

	res, err := c.fetcher.FetchStatus(ctx, d.Address, d.Model)
	if err != nil {
		if !errors.Is(err, fetch.ErrStatusNotFound) {
			c.logger.Warn("fetch failed", "printer_id", id, "error", err)
		}
		return c.applyAndPublish(ctx, id, status.Ready, noStatusPageMessage, "", d, nil)
	}

	n, err := status.Normalize(res.Payload, res.ContentType)
	if err != nil {
		c.logger.Debug("payload not recognised", "printer_id", id, "endpoint", res.Endpoint)
		return c.applyAndPublish(ctx, id, status.Ready, noStatusPageMessage, "", d, nil)
	}

	st := n.Status
	if st == "" {
		st = status.Classify(n.Signal, n.Alerts)
	}
	return c.applyAndPublish(ctx, id, st, checkMessage(n), n.CodeHint, d, n.Supplies)
}

// CheckAll fans out one check per registered printer and waits for the
// cycle to finish. Checks run concurrently; one printer's failure never
// delays or fails another's. The returned slice holds the updated
// records of every printer whose check completed.
func (c *Checker) CheckAll(ctx context.Context) []printer.Device {
	ids := c.registry.IDs()
	if len(ids) == 0 {
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		devices []printer.Device
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			d, err := c.CheckDevice(ctx, id)
			if err != nil {
				c.logger.Warn("check failed", "printer_id", id, "error", err)
				return
			}
			mu.Lock()
			devices = append(devices, *d)
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return devices
}

// apply is the persistence tail of a check.
func (c *Checker) apply(ctx context.Context, id string, st status.Status, message, codeHint string) (*printer.Device, error) {
	return c.registry.ApplyCheckResult(ctx, id, st, message, codeHint)
}

// applyAndPublish applies the result then forwards events and telemetry
// to whichever integrations are wired. A status event goes out only when
// the status actually transitioned (or on the first completed check, so
// the retained topic gets seeded); error events go out for each ledger
// entry the check added. Publishing failures are logged and swallowed;
// they must not fail the check.
func (c *Checker) applyAndPublish(ctx context.Context, id string, st status.Status, message, codeHint string, before *printer.Device, supplies map[string]float64) (*printer.Device, error) {
	openBefore := len(before.Errors)

	d, err := c.apply(ctx, id, st, message, codeHint)
	if err != nil {
		return nil, err
	}

	if c.publisher != nil {
		if before.Status != d.Status || before.LastCheckedAt == nil {
			if err := c.publisher.PublishStatus(ctx, d); err != nil {
				c.logger.Warn("status event publish failed", "printer_id", id, "error", err)
			}
		}
		for _, entry := range d.Errors[min(openBefore, len(d.Errors)):] {
			if err := c.publisher.PublishError(ctx, d, entry); err != nil {
				c.logger.Warn("error event publish failed", "printer_id", id, "code", entry.Code, "error", err)
			}
		}
	}
	if c.telemetry != nil && len(supplies) > 0 {
		c.telemetry.WriteSupplyLevels(d, supplies)
	}
	return d, nil
}

// checkMessage builds the human-readable message from a normalized
// record: the raw signal first, then any alert texts.
func checkMessage(n *status.Normalized) string {
	parts := make([]string, 0, 1+len(n.Alerts))
	if n.Signal != "" {
		parts = append(parts, n.Signal)
	}
	parts = append(parts, n.Alerts...)
	return strings.Join(parts, "; ")
}
