// Package catalog provides the read-only error code reference table for
// PrintWatch Core.
//
// The catalog maps vendor error code tokens (e.g., "13.01", "E-01") to
// descriptors carrying a description, severity, category, and suggested
// remediation. A vendor-specific table is consulted first when the device's
// model string identifies a known vendor; the vendor-neutral table is the
// fallback. Lookups never fail: codes absent from every table resolve to
// an Unknown descriptor so the monitoring pipeline always has something
// actionable to record.
//
// The default table is embedded in the binary; an external YAML file can be
// loaded instead when the reference data is maintained separately.
package catalog
