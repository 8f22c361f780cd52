package mqtt

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	if got := topics.SystemStatus(); got != "printwatch/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
	if got := topics.PrinterStatus("abc-123"); got != "printwatch/printers/abc-123/status" {
		t.Errorf("PrinterStatus() = %q", got)
	}
	if got := topics.PrinterErrors("abc-123"); got != "printwatch/printers/abc-123/errors" {
		t.Errorf("PrinterErrors() = %q", got)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", 0, false, []byte("x")); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("printwatch/test", 3, false, []byte("x")); err == nil || !strings.Contains(err.Error(), "invalid QoS") {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("printwatch/test", 0, false, make([]byte, maxPayloadSize+1)); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("oversized payload error = %v, want size error", err)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("printwatch-core")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "printwatch-core") {
		t.Errorf("online payload = %s", online)
	}
	offline := buildOfflinePayload("printwatch-core")
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}
