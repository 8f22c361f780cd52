// Package status defines the canonical printer status vocabulary and the
// logic that maps raw device payloads onto it.
//
// The pipeline has two stages. Normalize turns a fetched payload (JSON,
// XML/markup, or free text) into an intermediate record carrying a raw
// status signal, alert texts, an optional error-code hint, and optional
// consumable levels. Classify then maps the signal and alerts onto one of
// the closed set of canonical statuses by ordered keyword matching, with
// alert-driven overrides for conditions the primary signal understates.
//
// All matching is driven by declarative ordered tables so that precedence
// between conditions is data, not control flow.
package status
