// Package influxdb forwards supply-level telemetry to InfluxDB v2.
//
// Printers that expose consumable levels on their status page get one
// supply_level point per channel per check, written through the
// non-blocking batched write API. The integration is optional; when
// disabled the monitor runs without a telemetry writer and only the
// SQLite state store is used.
package influxdb
