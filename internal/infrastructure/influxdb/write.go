package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/printwatch-core/internal/printer"
)

// WriteSupplyLevels records the consumable levels a printer reported
// during a check. One point per channel goes to the supply_level
// measurement, tagged by printer and channel so dashboards can plot
// toner depletion per device. Satisfies the monitor package's
// TelemetryWriter.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - d: the printer the levels belong to
//   - levels: channel name to percentage, e.g. {"black": 42}
func (c *Client) WriteSupplyLevels(d *printer.Device, levels map[string]float64) {
	if !c.IsConnected() {
		return
	}

	now := time.Now()
	for channel, level := range levels {
		point := write.NewPoint(
			"supply_level",
			map[string]string{
				"printer_id": d.ID,
				"name":       d.Name,
				"channel":    channel,
			},
			map[string]interface{}{
				"percent": level,
			},
			now,
		)
		c.writeAPI.WritePoint(point)
	}
}

// WriteCheckDuration records how long one printer's check cycle took.
// Useful for spotting devices that slow a cycle down.
func (c *Client) WriteCheckDuration(printerID string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"check_duration",
		map[string]string{
			"printer_id": printerID,
		},
		map[string]interface{}{
			"seconds": duration.Seconds(),
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
