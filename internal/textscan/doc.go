// Package textscan extracts vendor error code tokens from free text.
//
// Printer status pages and alert messages embed error codes in wildly
// different shapes ("13.01", "E-02", "Error 79", "Code 49.4C02"). This
// package applies an ordered family of patterns over arbitrary text and
// returns the unique tokens in extraction order. Matching is best-effort
// by design; the catalog package decides what a token means.
package textscan
