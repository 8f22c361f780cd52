// Package fetch retrieves raw status payloads from printer web servers.
//
// There is no standard location for a printer's status page, so the
// fetcher carries per-vendor endpoint tables selected by a substring
// match on the device model string, with a generic fallback list tried
// last. The first 2xx response with a body wins; a device with no
// readable page at all yields ErrStatusNotFound, which callers treat as
// an expected outcome rather than a failure.
package fetch
