package messaging

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// MemoryConfig configures the in-process driver.
type MemoryConfig struct {
	// Buffer is the per-group queue size. Publish blocks when a group is full.
	Buffer int
	// RedeliveryDelay is how long a nacked message waits before it is queued again.
	RedeliveryDelay time.Duration
}

// Memory is an in-process Messaging. Consumers sharing a group name (any of
// WithGroup, WithChannel, WithQueueGroup or WithSubscription) split the
// messages; distinct groups each receive every message.
type Memory struct {
	cfg MemoryConfig
	seq atomic.Uint64

	mu     sync.Mutex
	groups map[string]map[string]chan *memoryMessage
	closed bool
}

// NewMemory creates an empty in-process broker.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.RedeliveryDelay <= 0 {
		cfg.RedeliveryDelay = 100 * time.Millisecond
	}

	return &Memory{cfg: cfg, groups: map[string]map[string]chan *memoryMessage{}}
}

// Close rejects further publishes.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Publish queues msg for every group subscribed to destination. Messages published
// before any consumer subscribes are dropped, as on a core NATS subject.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	queues := make([]chan *memoryMessage, 0, len(m.groups[destination]))
	for _, q := range m.groups[destination] {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	id := strconv.FormatUint(m.seq.Inc(), 10)
	now := time.Now()

	for _, q := range queues {
		mm := &memoryMessage{
			id:      id,
			topic:   destination,
			body:    append([]byte{}, msg.Body...),
			key:     msg.Key,
			headers: append([]Header{}, msg.Headers...),
			at:      now,
			queue:   q,
			delay:   m.cfg.RedeliveryDelay,
		}

		if msg.Delay > 0 {
			time.AfterFunc(msg.Delay, mm.enqueue)
			continue
		}

		select {
		case q <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: now}, nil
}

// Consume delivers messages of source until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := firstNonEmpty(co.group, co.channel, co.queueGroup, co.subscription)
	if group == "" {
		group = "anon-" + strconv.FormatUint(m.seq.Inc(), 10)
	}

	q := m.subscribe(source, group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-q:
					//nolint:errcheck // memory ack and nack cannot fail
					_ = deliver(ctx, "memory", handler, mm, co.autoAck)
				}
			}
		})
	}

	wg.Wait()
	return ctx.Err()
}

func (m *Memory) subscribe(topic, group string) chan *memoryMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan *memoryMessage{}
	}
	q, ok := m.groups[topic][group]
	if !ok {
		q = make(chan *memoryMessage, m.cfg.Buffer)
		m.groups[topic][group] = q
	}

	return q
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type memoryMessage struct {
	responder
	id      string
	topic   string
	body    []byte
	key     []byte
	headers []Header
	at      time.Time
	queue   chan *memoryMessage
	delay   time.Duration
}

func (mm *memoryMessage) enqueue() { mm.queue <- mm }

func (mm *memoryMessage) Body() []byte { return mm.body }

func (mm *memoryMessage) Key() []byte { return mm.key }

func (mm *memoryMessage) Headers() []Header { return mm.headers }

func (mm *memoryMessage) ID() string { return mm.id }

func (mm *memoryMessage) Topic() string { return mm.topic }

func (mm *memoryMessage) Timestamp() time.Time { return mm.at }

func (mm *memoryMessage) Ack(context.Context) error {
	mm.respond()
	return nil
}

// Nack queues a fresh copy after the redelivery delay.
func (mm *memoryMessage) Nack(context.Context) error {
	if !mm.respond() {
		return nil
	}

	again := &memoryMessage{
		id: mm.id, topic: mm.topic, body: mm.body, key: mm.key,
		headers: mm.headers, at: mm.at, queue: mm.queue, delay: mm.delay,
	}
	time.AfterFunc(mm.delay, again.enqueue)

	return nil
}
