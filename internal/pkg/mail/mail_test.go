package mail

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type flakyMail struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *flakyMail) Send(context.Context, Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *flakyMail) Close() error { return nil }

func TestBreaker_OpensAfterFailures(t *testing.T) {
	// Arrange
	next := &flakyMail{err: errors.New("smtp 451")}
	b := NewBreaker(next, BreakerConfig{MaxFailures: 2, Timeout: time.Hour})
	msg := Message{To: []string{"a@x.com"}, Subject: "s", TextBody: "b"}

	// Act
	err1 := b.Send(context.Background(), msg)
	err2 := b.Send(context.Background(), msg)
	err3 := b.Send(context.Background(), msg)

	// Assert
	if err1 == nil || err2 == nil || errors.Is(err2, ErrUnavailable) {
		t.Fatalf("expected provider errors first, got %v, %v", err1, err2)
	}
	if !errors.Is(err3, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once open, got %v", err3)
	}
	if next.calls != 2 {
		t.Fatalf("expected open circuit to skip provider, calls=%d", next.calls)
	}
	if b.State() != "open" {
		t.Fatalf("expected open state, got %s", b.State())
	}
}

func TestBreaker_IgnoresInvalidMessages(t *testing.T) {
	next := &flakyMail{err: ErrNoRecipients}
	b := NewBreaker(next, BreakerConfig{MaxFailures: 1, Timeout: time.Hour})

	for range 3 {
		if err := b.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
			t.Fatalf("expected ErrNoRecipients, got %v", err)
		}
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed state, got %s", b.State())
	}
}

func TestCompose_Multipart(t *testing.T) {
	// Act
	raw := string(compose(`"KRISHIGNAN" <noreply@krishignan.in>`, Message{
		To:       []string{"a@x.com"},
		Subject:  "Password Reset OTP - KRISHIGNAN",
		TextBody: "code 482913",
		HTMLBody: "<b>482913</b>",
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	// Assert
	for _, want := range []string{
		"From: \"KRISHIGNAN\" <noreply@krishignan.in>\r\n",
		"To: a@x.com\r\n",
		"Subject: Password Reset OTP - KRISHIGNAN\r\n",
		"Content-Type: multipart/alternative; boundary=krishignan-",
		"Content-Type: text/plain; charset=UTF-8\r\n\r\ncode 482913",
		"Content-Type: text/html; charset=UTF-8\r\n\r\n<b>482913</b>",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in\n%s", want, raw)
		}
	}
}

// fakeSMTP accepts one session without extensions and captures the DATA payload.
func fakeSMTP(t *testing.T) (addr string, data <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		write("220 fake ready")

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				write("250 ok")
			case cmd == "DATA":
				write("354 go ahead")
				var sb strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					sb.WriteString(l)
				}
				out <- sb.String()
				write("250 queued")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("502 unsupported")
			}
		}
	}()

	return ln.Addr().String(), out
}

func TestSMTP_Send(t *testing.T) {
	// Arrange
	addr, data := fakeSMTP(t)
	host, port, _ := net.SplitHostPort(addr)
	portNum, _ := strconv.Atoi(port)
	s, err := NewSMTP(SMTPConfig{Host: host, Port: portNum, From: `"KRISHIGNAN" <noreply@krishignan.in>`, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	// Act
	err = s.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "hi", TextBody: "482913"})

	// Assert
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case got := <-data:
		if !strings.Contains(got, "482913") || !strings.Contains(got, "Subject: hi") {
			t.Fatalf("unexpected payload %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive data")
	}
}

func TestSMTP_Validation(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}

	s, _ := NewSMTP(SMTPConfig{Host: "localhost", Port: 25})
	if err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if err := s.Send(context.Background(), Message{To: []string{"a@x.com"}}); !errors.Is(err, ErrNoSender) {
		t.Fatalf("expected ErrNoSender, got %v", err)
	}
}

func TestLog_Send(t *testing.T) {
	if err := NewLog().Send(context.Background(), Message{To: []string{"a@x.com"}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
