package status

import "strings"

// signalRules maps the raw status signal to a canonical status. The order
// is the priority order: the first rule whose keywords all appear in the
// lower-cased signal wins. Jam and out conditions sit above the broad
// ink/cartridge/error buckets so a signal like "paper jam error" resolves
// to the specific condition rather than the generic one.
var signalRules = []keywordRule{
	{Ready, [][]string{{"ready", "idle"}}},
	{Printing, [][]string{{"printing", "busy"}}},
	{PaperJam, [][]string{{"paper"}, {"jam"}}},
	{PaperOut, [][]string{{"paper"}, {"out", "empty"}}},
	{LoadingPaper, [][]string{{"paper"}, {"load"}}},
	{LowInk, [][]string{{"ink", "toner"}}},
	{CartridgeIssue, [][]string{{"cartridge"}}},
	{MaintenanceRequired, [][]string{{"maintenance"}}},
	{Offline, [][]string{{"offline", "disconnected"}}},
	{Error, [][]string{{"error", "fault"}}},
}

// alertOverride promotes a status to a more specific one when an alert
// text names a condition the primary signal missed. overrides lists the
// statuses the rule may replace; nil means it replaces anything.
type alertOverride struct {
	rule      keywordRule
	overrides []Status
}

// alertOverrides is scanned in order against each alert in turn; the
// first alert that triggers a rule ends the scan. Ordering matters: a jam
// is more urgent than a cartridge fault, which is more urgent than a
// paper load prompt.
var alertOverrides = []alertOverride{
	{rule: keywordRule{PaperJam, [][]string{{"jam"}}}, overrides: nil},
	{rule: keywordRule{CartridgeIssue, [][]string{{"cartridge"}, {"error", "missing"}}}, overrides: []Status{Printing, Ready}},
	{rule: keywordRule{LoadingPaper, [][]string{{"load"}, {"paper"}}}, overrides: []Status{Ready}},
}

// Classify maps a raw status signal plus any alert texts to a canonical
// status. The signal is matched against the keyword table first; the
// alerts are then scanned in order and may override the mapped status
// when they name a higher-specificity condition. Many devices report a
// coarse primary field ("error") with the actionable detail in a
// separate alert string, which is why the second pass exists.
//
// Classify is a pure function of its inputs and never fails; an
// unrecognisable signal defaults to Ready.
//
// Parameters:
//   - rawSignal: status text as reported by the device, any casing.
//   - alerts: alert or warning texts collected from the same payload.
//
// Returns:
//   - Status: the canonical status.
func Classify(rawSignal string, alerts []string) Status {
	mapped := Ready
	if s, ok := matchKeywords(strings.ToLower(rawSignal), signalRules); ok {
		mapped = s
	}

	for _, alert := range alerts {
		text := strings.ToLower(alert)
		for _, ov := range alertOverrides {
			if !ruleMatches(text, ov.rule) {
				continue
			}
			if ov.applies(mapped) {
				return ov.rule.status
			}
		}
	}
	return mapped
}

func (ov alertOverride) applies(current Status) bool {
	if ov.overrides == nil {
		return true
	}
	for _, s := range ov.overrides {
		if s == current {
			return true
		}
	}
	return false
}
