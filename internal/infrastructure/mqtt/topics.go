package mqtt

import "fmt"

// Topic layout. All topics live under the printwatch/ prefix; printer
// events are keyed by printer ID so consumers can subscribe per device
// or with a wildcard.
const (
	topicPrefix = "printwatch"

	systemStatusTopic = topicPrefix + "/system/status"
)

// Topics builds the topic strings used by the service.
type Topics struct{}

// SystemStatus is the retained service liveness topic. Online, graceful
// offline, and LWT crash messages all land here.
func (Topics) SystemStatus() string {
	return systemStatusTopic
}

// PrinterStatus is the per-printer status event topic.
func (Topics) PrinterStatus(printerID string) string {
	return fmt.Sprintf("%s/printers/%s/status", topicPrefix, printerID)
}

// PrinterErrors is the per-printer error code event topic.
func (Topics) PrinterErrors(printerID string) string {
	return fmt.Sprintf("%s/printers/%s/errors", topicPrefix, printerID)
}
