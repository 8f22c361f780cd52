package mqtt

import (
	"context"
	"time"

	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/printer"
	"github.com/nerrad567/printwatch-core/internal/status"
)

// StatusEvent is published to printwatch/printers/{id}/status after
// every completed check. Retained, so a late subscriber sees the
// current state immediately.
type StatusEvent struct {
	PrinterID string        `json:"printer_id"`
	Name      string        `json:"name"`
	Status    status.Status `json:"status"`
	Message   string        `json:"message,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorEvent is published to printwatch/printers/{id}/errors when a new
// unresolved error code is recorded.
type ErrorEvent struct {
	PrinterID   string           `json:"printer_id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Severity    catalog.Severity `json:"severity"`
	Category    catalog.Category `json:"category"`
	Solution    string           `json:"solution,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// PublishStatus sends a printer's post-check state as a retained status
// event. Satisfies the monitor package's EventPublisher.
func (c *Client) PublishStatus(_ context.Context, d *printer.Device) error {
	event := StatusEvent{
		PrinterID: d.ID,
		Name:      d.Name,
		Status:    d.Status,
		Message:   d.Message,
		ErrorCode: d.LastErrorCode,
		Timestamp: time.Now().UTC(),
	}
	return c.PublishJSON(Topics{}.PrinterStatus(d.ID), true, event)
}

// PublishError sends a newly recorded error code as an error event.
// Not retained; the ledger is the durable record.
func (c *Client) PublishError(_ context.Context, d *printer.Device, entry printer.ErrorCodeEntry) error {
	event := ErrorEvent{
		PrinterID:   d.ID,
		Name:        d.Name,
		Code:        entry.Code,
		Description: entry.Description,
		Severity:    entry.Severity,
		Category:    entry.Category,
		Solution:    entry.Solution,
		Timestamp:   time.Now().UTC(),
	}
	return c.PublishJSON(Topics{}.PrinterErrors(d.ID), false, event)
}
