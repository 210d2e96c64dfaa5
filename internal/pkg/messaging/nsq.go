package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQProducerAddrRequired is returned by Publish when no nsqd address is configured.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned by Consume when no nsqd or lookupd address is configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq nsqd or lookupd addresses are required")
	// ErrNSQChannelRequired is returned by Consume without WithChannel.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
)

// NSQConfig configures the NSQ driver.
type NSQConfig struct {
	ProducerAddr   string
	NSQDAddrs      []string
	LookupdAddrs   []string
	RequeueBackoff time.Duration
}

// NSQ is a Messaging backed by nsqd. NSQ carries no headers, so key and
// headers travel in a JSON envelope around the body.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers []*nsq.Consumer
}

type nsqEnvelope struct {
	Key     []byte            `json:"key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

// NewNSQ creates an NSQ driver. A producer is created only when ProducerAddr is set.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr == "" {
		return n, nil
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)
	n.producer = p

	return n, nil
}

// Close stops every consumer and the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}

	return nil
}

// Publish sends msg to topic destination, deferred by msg.Delay when set.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrNSQProducerAddrRequired
	}

	env := nsqEnvelope{Key: msg.Key, Body: msg.Body}
	if len(msg.Headers) > 0 {
		env.Headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			env.Headers[h.Key] = string(h.Value)
		}
	}

	body, err := json.Marshal(env)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq encode: %w", err)
	}

	if msg.Delay > 0 {
		err = n.producer.DeferredPublish(destination, msg.Delay, body)
	} else {
		err = n.producer.Publish(destination, body)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Consume subscribes to topic source on channel WithChannel.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case source == "":
		return ErrDestinationRequired
	case handler == nil:
		return ErrHandlerRequired
	case co.channel == "":
		return ErrNSQChannelRequired
	case len(n.cfg.NSQDAddrs) == 0 && len(n.cfg.LookupdAddrs) == 0:
		return ErrNSQConsumerAddrsRequired
	}

	ccfg := nsq.NewConfig()
	ccfg.MaxInFlight = max(co.maxInFlight, co.concurrency)

	consumer, err := nsq.NewConsumer(source, co.channel, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		return deliver(ctx, "nsq", handler, newNSQMessage(source, m, n.cfg.RequeueBackoff), co.autoAck)
	}), co.concurrency)

	n.mu.Lock()
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

type nsqMessage struct {
	responder
	topic   string
	msg     *nsq.Message
	env     nsqEnvelope
	backoff time.Duration
}

// newNSQMessage unwraps the envelope. Bodies published by other producers are passed through as is.
func newNSQMessage(topic string, m *nsq.Message, backoff time.Duration) *nsqMessage {
	nm := &nsqMessage{topic: topic, msg: m, backoff: backoff}
	if err := json.Unmarshal(m.Body, &nm.env); err != nil || nm.env.Body == nil {
		nm.env = nsqEnvelope{Body: m.Body}
	}
	return nm
}

func (m *nsqMessage) Body() []byte { return m.env.Body }

func (m *nsqMessage) Key() []byte { return m.env.Key }

func (m *nsqMessage) Headers() []Header {
	out := make([]Header, 0, len(m.env.Headers))
	for k, v := range m.env.Headers {
		out = append(out, Header{Key: k, Value: []byte(v)})
	}
	return out
}

func (m *nsqMessage) ID() string { return fmt.Sprintf("%x", m.msg.ID) }

func (m *nsqMessage) Topic() string { return m.topic }

func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Ack(context.Context) error {
	if m.respond() {
		m.msg.Finish()
	}
	return nil
}

func (m *nsqMessage) Nack(context.Context) error {
	if m.respond() {
		m.msg.Requeue(m.backoff)
	}
	return nil
}
