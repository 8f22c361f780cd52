package textscan

import "regexp"

// codePatterns is the ordered family of patterns used to pull vendor error
// code tokens out of free text. Order matters: matches are collected pattern
// by pattern, so more specific shapes should not be starved by earlier ones.
//
// Each pattern captures the code token in group 1. The numeric-segment
// patterns use explicit boundary classes instead of \b so that a two-segment
// match is not carved out of a longer dotted code (RE2 has no lookahead).
var codePatterns = []*regexp.Regexp{
	// Two-segment numeric: 13.01
	regexp.MustCompile(`(?:^|[^0-9.])(\d{2}\.\d{2})(?:[^0-9.]|$)`),

	// Three-segment numeric: 10.00.00
	regexp.MustCompile(`(?:^|[^0-9.])(\d{2}\.\d{2}\.\d{2})(?:[^0-9.]|$)`),

	// Letter-dash-digits: E-01, W-11
	regexp.MustCompile(`\b([EW]-\d{2})\b`),

	// Letter-digits: E04, E50
	regexp.MustCompile(`\b(E\d{2})\b`),

	// Digit-digit-letter-digit: 51A0, 30B2
	regexp.MustCompile(`\b(\d{2}[A-F]\d)\b`),

	// The word "Error" followed by a numeric token: "Error 79" / "Error 13.01"
	regexp.MustCompile(`(?i)\berror[:#\s]+(\d+(?:\.\d+)*)`),

	// The word "Code" followed by an alphanumeric token: "Code E-02"
	regexp.MustCompile(`(?i)\bcode[:#\s]+([A-Za-z0-9][A-Za-z0-9.\-]*)`),
}

// ExtractCodes scans free text for vendor error code tokens.
//
// Every pattern in the family is applied over the whole text; matches are
// collected in pattern order, then in match order within a pattern.
// Duplicates are removed keeping the first occurrence, so the result is an
// ordered set.
//
// Parameters:
//   - text: Arbitrary text (status page fragment, alert message, etc.)
//
// Returns:
//   - []string: Unique code tokens in extraction order; nil when none found
func ExtractCodes(text string) []string {
	if text == "" {
		return nil
	}

	var codes []string
	seen := make(map[string]bool)

	for _, pattern := range codePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			code := match[1]
			if seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)
		}
	}

	return codes
}
