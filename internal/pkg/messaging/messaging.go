package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
//
// For example, not all brokers support delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Client is a broker connection that can publish and must be closed on shutdown.
type Client interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a destination (topic or subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers are mapped to native headers where the broker has them and to
	// Pub/Sub attributes otherwise. NSQ drops them.
	Headers []Header

	// OrderingKey is used by Google Pub/Sub.
	OrderingKey string

	// Delay is used for deferred delivery (NSQ only).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID, when the broker returns one.
	MessageID string
	Topic     string
	Timestamp time.Time
}

func headerAttributes(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	attrs := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		attrs[h.Key] = string(h.Value)
	}
	return attrs
}
