package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

func waitFor(t *testing.T, ch <-chan Message) Message {
	t.Helper()

	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func startConsumer(t *testing.T, mq *Memory, topic string, h Handler, opts ...ConsumeOption) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mq.Consume(ctx, topic, h, opts...)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// wait until the group is registered
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mq.mu.Lock()
		n := len(mq.groups[topic])
		mq.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("consumer did not subscribe")
}

func TestMemory_PublishConsumeWithHeaders(t *testing.T) {
	// Arrange
	mq := NewMemory(MemoryConfig{})
	got := make(chan Message, 1)
	startConsumer(t, mq, "password_reset_code", func(_ context.Context, m Message) error {
		got <- m
		return nil
	}, WithGroup("notification"), WithAutoAck(true))

	// Act
	res, err := mq.Publish(context.Background(), "password_reset_code", OutgoingMessage{
		Body:    []byte(`{"email":"a@x.com"}`),
		Headers: []Header{{Key: "cID", Value: []byte("corr-1")}},
	})

	// Assert
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	m := waitFor(t, got)
	if string(m.Body()) != `{"email":"a@x.com"}` {
		t.Fatalf("unexpected body %q", m.Body())
	}
	if HeaderValue(m, "cID") != "corr-1" {
		t.Fatalf("expected cID header")
	}
	if m.ID() != res.MessageID {
		t.Fatalf("expected id %s, got %s", res.MessageID, m.ID())
	}
}

func TestMemory_NackRedelivers(t *testing.T) {
	// Arrange
	mq := NewMemory(MemoryConfig{RedeliveryDelay: 5 * time.Millisecond})
	var mu sync.Mutex
	attempts := 0
	done := make(chan Message, 1)
	startConsumer(t, mq, "jobs", func(_ context.Context, m Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("smtp down")
		}
		done <- m
		return nil
	}, WithChannel("worker"), WithAutoAck(true))

	// Act
	if _, err := mq.Publish(context.Background(), "jobs", OutgoingMessage{Body: []byte("x")}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Assert
	waitFor(t, done)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestMemory_GroupsFanOut(t *testing.T) {
	mq := NewMemory(MemoryConfig{})
	a := make(chan Message, 1)
	b := make(chan Message, 1)
	startConsumer(t, mq, "t", func(_ context.Context, m Message) error { a <- m; return nil }, WithGroup("a"))
	startConsumer(t, mq, "t", func(_ context.Context, m Message) error { b <- m; return nil }, WithGroup("b"))

	if _, err := mq.Publish(context.Background(), "t", OutgoingMessage{Body: []byte("hi")}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, a)
	waitFor(t, b)
}

func TestMemory_PanicIsRecovered(t *testing.T) {
	mq := NewMemory(MemoryConfig{RedeliveryDelay: time.Millisecond})
	var mu sync.Mutex
	calls := 0
	ok := make(chan Message, 1)
	startConsumer(t, mq, "p", func(_ context.Context, m Message) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			panic("boom")
		}
		ok <- m
		return nil
	}, WithAutoAck(true))

	if _, err := mq.Publish(context.Background(), "p", OutgoingMessage{Body: []byte("x")}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, ok)
}

func TestMemory_Validation(t *testing.T) {
	mq := NewMemory(MemoryConfig{})

	if _, err := mq.Publish(context.Background(), "", OutgoingMessage{}); !errors.Is(err, ErrDestinationRequired) {
		t.Fatalf("expected ErrDestinationRequired, got %v", err)
	}
	if err := mq.Consume(context.Background(), "t", nil); !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("expected ErrHandlerRequired, got %v", err)
	}

	_ = mq.Close()
	if _, err := mq.Publish(context.Background(), "t", OutgoingMessage{}); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver(context.Background(), "memory", FactoryOptions{})
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	_ = m.Close()

	if _, err := NewFromDriver(context.Background(), "rabbit", FactoryOptions{}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	if _, err := NewFromDriver(context.Background(), DriverKafka, FactoryOptions{}); !errors.Is(err, ErrKafkaBrokersRequired) {
		t.Fatalf("expected ErrKafkaBrokersRequired, got %v", err)
	}
}

func TestNSQMessage_Envelope(t *testing.T) {
	// wrapped payloads and foreign payloads both decode
	env := []byte(`{"key":"YQ==","headers":{"cID":"c1"},"body":"aGk="}`)
	m := newNSQMessage("t", nsqRaw(env), 0)
	if string(m.Body()) != "hi" || string(m.Key()) != "a" || HeaderValue(m, "cID") != "c1" {
		t.Fatalf("unexpected envelope decode: %q %q %v", m.Body(), m.Key(), m.Headers())
	}

	raw := newNSQMessage("t", nsqRaw([]byte("plain")), 0)
	if string(raw.Body()) != "plain" {
		t.Fatalf("expected passthrough body, got %q", raw.Body())
	}
}

func nsqRaw(body []byte) *nsq.Message {
	return nsq.NewMessage(nsq.MessageID{}, body)
}
