package mqtt

import (
	"encoding/json"
	"fmt"
)

// Publish sends a raw payload to a topic.
//
// Parameters:
//   - topic: Destination topic, must be non-empty
//   - qos: Delivery guarantee level (0, 1, or 2)
//   - retained: Whether the broker keeps the message for new subscribers
//   - payload: Raw message bytes, capped at maxPayloadSize
//
// Returns:
//   - error: Validation failure, disconnection, timeout, or broker error
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload %d bytes exceeds %d limit", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: publish to %s", ErrTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishJSON marshals v and publishes it to a topic at the configured
// QoS level.
func (c *Client) PublishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshalling payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, byte(c.cfg.QoS), retained, payload)
}
