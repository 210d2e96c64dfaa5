package email

import (
	"context"
	"errors"
	"testing"

	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
)

type captureMail struct {
	sent []mail.Message
	err  error
}

func (c *captureMail) Send(_ context.Context, msg mail.Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

func (c *captureMail) Close() error { return nil }

func TestMail_Send_DefaultSender(t *testing.T) {
	// Arrange
	client := &captureMail{}
	m := New(client, " KRISHIGNAN <noreply@krishignan.in> ", instrument.NewNoop())

	// Act
	err := m.Send(context.Background(), mail.Message{To: []string{"farmer@example.com"}, Subject: "hi"})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.sent[0].From; got != "KRISHIGNAN <noreply@krishignan.in>" {
		t.Fatalf("unexpected sender %q", got)
	}
}

func TestMail_Send_KeepsExplicitSender(t *testing.T) {
	client := &captureMail{}
	m := New(client, "noreply@krishignan.in", instrument.NewNoop())

	_ = m.Send(context.Background(), mail.Message{From: "ops@krishignan.in", To: []string{"a@b.c"}})

	if got := client.sent[0].From; got != "ops@krishignan.in" {
		t.Fatalf("unexpected sender %q", got)
	}
}

func TestMail_Send_Error(t *testing.T) {
	client := &captureMail{err: errors.New("smtp down")}
	m := New(client, "", instrument.NewNoop())

	if err := m.Send(context.Background(), mail.Message{To: []string{"a@b.c"}}); !errors.Is(err, client.err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
