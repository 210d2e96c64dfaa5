package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const pubSubScope = "https://www.googleapis.com/auth/pubsub"

// ErrPubSubProjectIDRequired is returned when no project is configured.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub driver.
type PubSubConfig struct {
	ProjectID string
	// CredentialsJSON is a service account key; empty uses application default credentials.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint, e.g. an emulator.
	Endpoint string
}

// PubSub is a Messaging backed by Google Cloud Pub/Sub.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSub creates the client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, pubSubScope)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{client: client, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Close stops publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	for _, pub := range p.publishers {
		pub.Stop()
	}
	p.publishers = map[string]*pubsub.Publisher{}
	p.mu.Unlock()

	return p.client.Close()
}

func (p *PubSub) publisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub
}

// Publish sends msg to topic destination. Headers are carried as attributes.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	attrs := make(map[string]string, len(msg.Attributes)+len(msg.Headers))
	for k, v := range msg.Attributes {
		attrs[k] = v
	}
	for _, h := range msg.Headers {
		attrs[h.Key] = string(h.Value)
	}

	id, err := p.publisher(destination).Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: msg.OrderingKey,
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: destination}, nil
}

// Consume receives from subscription WithSubscription, or from source itself
// when no subscription option is given.
func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	subscription := source
	if co.subscription != "" {
		subscription = co.subscription
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		//nolint:errcheck // pubsub ack and nack never fail synchronously
		_ = deliver(ctx, "pubsub", handler, &pubSubMessage{topic: source, msg: m}, co.autoAck)
	})
}

type pubSubMessage struct {
	responder
	topic string
	msg   *pubsub.Message
}

func (m *pubSubMessage) Body() []byte { return m.msg.Data }

func (m *pubSubMessage) Key() []byte { return []byte(m.msg.OrderingKey) }

func (m *pubSubMessage) Headers() []Header {
	out := make([]Header, 0, len(m.msg.Attributes))
	for k, v := range m.msg.Attributes {
		out = append(out, Header{Key: k, Value: []byte(v)})
	}
	return out
}

func (m *pubSubMessage) ID() string { return m.msg.ID }

func (m *pubSubMessage) Topic() string { return m.topic }

func (m *pubSubMessage) Timestamp() time.Time { return m.msg.PublishTime }

func (m *pubSubMessage) Ack(context.Context) error {
	if m.respond() {
		m.msg.Ack()
	}
	return nil
}

func (m *pubSubMessage) Nack(context.Context) error {
	if m.respond() {
		m.msg.Nack()
	}
	return nil
}
