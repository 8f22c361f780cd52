package status

import "strings"

// Status is the canonical device status vocabulary. Every consumer of the
// core (API, MQTT events, persistence) sees exactly these values; raw
// vendor wording never leaks past the classifier.
type Status string

const (
	Ready               Status = "ready"
	Printing            Status = "printing"
	LoadingPaper        Status = "loading_paper"
	PaperJam            Status = "paper_jam"
	PaperOut            Status = "paper_out"
	LowInk              Status = "low_ink"
	CartridgeIssue      Status = "cartridge_issue"
	Offline             Status = "offline"
	Error               Status = "error"
	MaintenanceRequired Status = "maintenance_required"
)

// Valid reports whether s is one of the canonical status values.
func (s Status) Valid() bool {
	switch s {
	case Ready, Printing, LoadingPaper, PaperJam, PaperOut, LowInk,
		CartridgeIssue, Offline, Error, MaintenanceRequired:
		return true
	}
	return false
}

// String returns the wire form of the status.
func (s Status) String() string {
	return string(s)
}

// keywordRule pairs a status with the keyword conditions that select it.
// Each entry in all is a conjunct; a conjunct is satisfied when at least
// one of its alternatives appears in the text. The rule matches when every
// conjunct is satisfied.
type keywordRule struct {
	status Status
	all    [][]string
}

// matchKeywords runs text through rules in declared order and returns the
// status of the first rule whose conjuncts are all satisfied. The ordering
// of the rule slice is the priority order; callers encode precedence in
// the table, not in control flow.
func matchKeywords(text string, rules []keywordRule) (Status, bool) {
	for _, r := range rules {
		if ruleMatches(text, r) {
			return r.status, true
		}
	}
	return "", false
}

func ruleMatches(text string, r keywordRule) bool {
	for _, alternatives := range r.all {
		if !containsAny(text, alternatives) {
			return false
		}
	}
	return true
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
