package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when the selected broker cannot honor a publish setting, such as Delay.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrDestinationRequired is returned when the topic, subject or subscription is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can both publish and consume.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher sends messages to a topic or subject.
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer blocks delivering messages from source to handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. With auto-ack enabled a nil error acks the
// message and a non-nil error asks the broker to redeliver it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	Body    []byte
	Key     []byte
	Headers []Header

	// Attributes map to Pub/Sub attributes; other brokers ignore them.
	Attributes map[string]string

	// OrderingKey maps to the Pub/Sub ordering key.
	OrderingKey string

	// Delay is honored by NSQ and the memory driver only.
	Delay time.Duration
}

// Header is a message header. Keys may repeat.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries what the broker reported back, if anything.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	ID() string
	Topic() string
	Timestamp() time.Time

	// Ack marks the message processed. Calling it twice is a no-op.
	Ack(ctx context.Context) error
	// Nack asks for redelivery when the broker supports it.
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value of header key, or "".
func HeaderValue(msg Message, key string) string {
	for _, h := range msg.Headers() {
		if h.Key == key {
			return string(h.Value)
		}
	}

	return ""
}
