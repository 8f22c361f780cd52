// Package mqtt publishes printer events to an MQTT broker.
//
// The service is publish-only: status events go to
// printwatch/printers/{id}/status (retained) after every check, new
// error codes to printwatch/printers/{id}/errors, and service liveness
// to printwatch/system/status with a Last Will message for crash
// detection. The whole integration is optional; when disabled the
// monitor simply runs without a publisher.
package mqtt
