package mqtt

import "errors"

// Sentinel errors for the scanner transport. Callers match them with
// errors.Is; wrapped variants carry the operation detail.
var (
	// ErrNotConnected: the operation needs a live broker connection.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed: the initial broker connection did not come up.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed: the broker did not acknowledge a publish in time.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed: the subscription was not established.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed: the subscription could not be removed.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS: QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic: empty topic string.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout: the operation ran past its deadline.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
