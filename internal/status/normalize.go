package status

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/nerrad567/printwatch-core/internal/textscan"
)

// ErrUnrecognized reports a payload that carried no status signal in any
// shape the normalizer understands. The caller treats this the same as a
// failed fetch and moves on to the next candidate endpoint.
var ErrUnrecognized = errors.New("status: payload not recognised")

// Normalized is the uniform intermediate record produced from a raw
// device payload, regardless of its original shape.
type Normalized struct {
	// Signal is the raw status text to feed into Classify.
	Signal string

	// Status is set when the extraction strategy itself resolved the
	// canonical status, as free-text keyword matching does. When set
	// it takes precedence over classifying Signal; Signal then only
	// carries the human-readable source text.
	Status Status

	// Alerts holds alert or warning texts found alongside the status.
	Alerts []string

	// CodeHint is an error code the payload carried in a dedicated
	// field, already separated from the surrounding text.
	CodeHint string

	// Supplies maps consumable channel names to percentage levels,
	// when the payload reported them.
	Supplies map[string]float64
}

// jsonStatusFields is the ordered list of field names probed for the
// status signal in structured payloads.
var jsonStatusFields = []string{"status", "printer_status", "state", "printerState"}

// jsonSupplyFields is the ordered list of field names probed for
// consumable levels.
var jsonSupplyFields = []string{"supplies", "consumables", "marker_supplies"}

// jsonAlertFields is the ordered list of field names probed for alert
// arrays.
var jsonAlertFields = []string{"alerts", "warnings", "errors"}

// jsonCodeFields is the ordered list of field names probed for a
// dedicated error-code field.
var jsonCodeFields = []string{"error_code", "errorCode", "code"}

// xmlStatusElements is the ordered list of element names whose text is
// taken as the status signal in markup payloads.
var xmlStatusElements = []string{"status", "printerstatus", "printer-status", "state", "devicestatus"}

// xmlAlertElements is the set of element names whose text is collected
// as alerts in markup payloads.
var xmlAlertElements = []string{"alert", "warning", "error", "message"}

// freeTextRules drives classification of unstructured payloads such as
// scraped HTML or plain status pages. The order is a deliberate
// precedence: severe, actionable conditions are tested before benign
// ones so that an incidental "ready" elsewhere in the page cannot mask a
// jam or a cartridge fault.
var freeTextRules = []keywordRule{
	{CartridgeIssue, [][]string{{"cartridge"}}},
	{PaperJam, [][]string{{"paper"}, {"jam"}}},
	{PaperOut, [][]string{{"paper"}, {"out", "empty"}}},
	{LoadingPaper, [][]string{{"load"}, {"paper"}}},
	{LowInk, [][]string{{"low ink", "low toner", "ink low", "toner low"}}},
	{Printing, [][]string{{"printing"}}},
	{Ready, [][]string{{"ready", "idle"}}},
	{Offline, [][]string{{"offline", "disconnected"}}},
}

// Normalize turns a raw device payload into a Normalized record. The
// content type selects the extraction strategy: JSON payloads are probed
// for known status, supply, alert, and code fields; XML or markup
// payloads are walked for known status and alert elements; anything else
// is treated as free text and matched against keyword groups in
// precedence order.
//
// Parameters:
//   - payload: response body as fetched from the device.
//   - contentType: declared content type, may be empty or vague.
//
// Returns:
//   - *Normalized: the extracted record.
//   - error: ErrUnrecognized when no strategy found a signal.
func Normalize(payload []byte, contentType string) (*Normalized, error) {
	ct := strings.ToLower(contentType)
	trimmed := bytes.TrimSpace(payload)

	switch {
	case strings.Contains(ct, "json"):
		return normalizeJSON(trimmed)
	case strings.Contains(ct, "xml") || looksLikeMarkup(trimmed):
		return normalizeMarkup(trimmed)
	default:
		return normalizeText(trimmed)
	}
}

func looksLikeMarkup(payload []byte) bool {
	return len(payload) > 0 && payload[0] == '<'
}

func normalizeJSON(payload []byte) (*Normalized, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, ErrUnrecognized
	}

	n := &Normalized{}
	for _, field := range jsonStatusFields {
		if s, ok := doc[field].(string); ok && s != "" {
			n.Signal = s
			break
		}
	}
	for _, field := range jsonCodeFields {
		if s, ok := doc[field].(string); ok && s != "" {
			n.CodeHint = s
			break
		}
	}
	for _, field := range jsonAlertFields {
		raw, ok := doc[field].([]any)
		if !ok {
			continue
		}
		for _, item := range raw {
			if text := alertText(item); text != "" {
				n.Alerts = append(n.Alerts, text)
			}
		}
	}
	for _, field := range jsonSupplyFields {
		raw, ok := doc[field].(map[string]any)
		if !ok {
			continue
		}
		n.Supplies = supplyLevels(raw)
		break
	}

	if n.Signal == "" && len(n.Alerts) == 0 && n.CodeHint == "" && len(n.Supplies) == 0 {
		return nil, ErrUnrecognized
	}
	return n, nil
}

// alertText accepts the two alert shapes seen in the wild: a bare string
// or an object carrying the text under a well-known key.
func alertText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"message", "text", "description"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// supplyLevels flattens a supplies object, accepting either a bare
// number per channel or a nested object with a "level" field.
func supplyLevels(raw map[string]any) map[string]float64 {
	levels := make(map[string]float64)
	for name, v := range raw {
		switch val := v.(type) {
		case float64:
			levels[name] = val
		case map[string]any:
			if lvl, ok := val["level"].(float64); ok {
				levels[name] = lvl
			}
		}
	}
	if len(levels) == 0 {
		return nil
	}
	return levels
}

func normalizeMarkup(payload []byte) (*Normalized, error) {
	n := &Normalized{}
	statusByElement := make(map[string]string)

	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var current string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = strings.ToLower(t.Name.Local)
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || current == "" {
				continue
			}
			if isStatusElement(current) {
				if _, seen := statusByElement[current]; !seen {
					statusByElement[current] = text
				}
			}
			if isAlertElement(current) {
				n.Alerts = append(n.Alerts, text)
			}
		case xml.EndElement:
			current = ""
		}
	}

	// The candidate element list is ordered; the first name present in
	// the document supplies the signal.
	for _, name := range xmlStatusElements {
		if text, ok := statusByElement[name]; ok {
			n.Signal = text
			break
		}
	}

	if n.Signal == "" && len(n.Alerts) == 0 {
		return nil, ErrUnrecognized
	}
	return n, nil
}

func isStatusElement(name string) bool {
	for _, candidate := range xmlStatusElements {
		if name == candidate {
			return true
		}
	}
	return false
}

func isAlertElement(name string) bool {
	for _, candidate := range xmlAlertElements {
		if name == candidate {
			return true
		}
	}
	return false
}

// maxSnippetLen caps how much page text is carried into Signal.
const maxSnippetLen = 160

func normalizeText(payload []byte) (*Normalized, error) {
	text := string(payload)
	matched, ok := matchKeywords(strings.ToLower(text), freeTextRules)
	if !ok {
		return nil, ErrUnrecognized
	}

	// Free text has no dedicated fields, so the page itself supplies
	// both the message and any error codes buried in it.
	n := &Normalized{
		Status: matched,
		Signal: textSnippet(text),
	}
	if codes := textscan.ExtractCodes(text); len(codes) > 0 {
		n.CodeHint = codes[0]
	}
	return n, nil
}

// textSnippet collapses the page text to a single whitespace-normalised
// line capped at maxSnippetLen runes, so it reads as a status message.
func textSnippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if runes := []rune(s); len(runes) > maxSnippetLen {
		s = string(runes[:maxSnippetLen])
	}
	return s
}
