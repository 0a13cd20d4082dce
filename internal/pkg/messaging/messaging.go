package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when a feature is not supported by the selected broker.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("messaging: client closed")
	// ErrDestinationRequired is returned when a topic, subject or subscription is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source. Consume blocks until ctx is done
// or the broker connection fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning and by Pub/Sub as the ordering key.
	Key []byte
	// Headers are carried as native headers (NATS, Kafka) or attributes
	// (Pub/Sub). NSQ has no headers and drops them.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	Body() []byte
	Headers() []Header
	// ID returns the broker message id, or "" when the broker has none.
	ID() string
	// Ack acknowledges processing. Only the first Ack or Nack has effect.
	Ack(ctx context.Context) error
	// Nack requests redelivery where the broker supports it.
	Nack(ctx context.Context) error
}

// HeaderValue returns the first header named key, or "".
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
