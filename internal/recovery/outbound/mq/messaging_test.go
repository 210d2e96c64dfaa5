package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/seal"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
	"github.com/krishignan/krishignan/internal/shared/event"
)

type capture struct {
	dest string
	msg  messaging.OutgoingMessage
	err  error
}

func (c *capture) Publish(_ context.Context, dest string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	c.dest = dest
	c.msg = msg
	return messaging.PublishResult{Topic: dest}, c.err
}

type counter int64

func (c *counter) Generate() int64 {
	*c++
	return int64(*c)
}

func TestMessaging_SendResetCode(t *testing.T) {
	// Arrange
	sealer, err := seal.New([]byte("event-secret"), event.PasswordResetCodePurpose)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	pub := &capture{}
	ids := counter(41)
	m := NewMessaging(pub, sealer, &ids, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")
	exp := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)

	// Act
	err = m.SendResetCode(ctx, usecase.ResetCodeDelivery{Email: "a@x.com", FullName: "Anil", Code: "482913", ExpiresAt: exp})

	// Assert
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if pub.dest != event.PasswordResetCodeDestination {
		t.Fatalf("unexpected destination %q", pub.dest)
	}
	if len(pub.msg.Headers) != 1 || pub.msg.Headers[0].Key != "cID" || string(pub.msg.Headers[0].Value) != "cid-1" {
		t.Fatalf("unexpected headers %+v", pub.msg.Headers)
	}

	var body event.PasswordResetCodeMessage
	if err := json.Unmarshal(pub.msg.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.EventID != 42 || body.Email != "a@x.com" || !body.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.SealedCode == "482913" {
		t.Fatalf("code must be sealed")
	}
	code, err := sealer.OpenString(body.SealedCode)
	if err != nil || code != "482913" {
		t.Fatalf("open sealed code: %q %v", code, err)
	}
}

func TestMessaging_PublishError(t *testing.T) {
	sealer, _ := seal.New([]byte("event-secret"), event.PasswordResetCodePurpose)
	ids := counter(0)
	m := NewMessaging(&capture{err: errors.New("broker down")}, sealer, &ids, instrument.NewNoop())

	err := m.SendResetCode(context.Background(), usecase.ResetCodeDelivery{Email: "a@x.com", Code: "482913"})

	if err == nil {
		t.Fatalf("expected publish error")
	}
}
