package seal

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func mustNew(t *testing.T, secret, purpose string) *Sealer {
	t.Helper()

	s, err := New([]byte(secret), purpose)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	// Arrange
	s := mustNew(t, "jwt-secret", "password-reset")

	// Act
	a, errA := s.SealString("a@x.com:482913")
	b, errB := s.SealString("a@x.com:482913")

	// Assert
	if errA != nil || errB != nil {
		t.Fatalf("seal: %v %v", errA, errB)
	}
	if a == b {
		t.Fatalf("expected fresh nonce per call")
	}
	got, err := s.OpenString(a)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got != "a@x.com:482913" {
		t.Fatalf("unexpected plaintext %q", got)
	}
}

func TestSealer_EveryBitFlipFails(t *testing.T) {
	// Arrange
	s := mustNew(t, "jwt-secret", "password-reset")
	raw, err := s.Seal([]byte("a@x.com:482913:1700000000000:0"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	// Act & Assert
	for i := range len(raw) * 8 {
		tampered := bytes.Clone(raw)
		tampered[i/8] ^= 1 << (i % 8)
		if _, err := s.Open(tampered); err == nil {
			t.Fatalf("bit %d flipped but payload still opened", i)
		}
	}
}

func TestSealer_PurposeAndKeyBinding(t *testing.T) {
	s := mustNew(t, "jwt-secret", "password-reset")
	raw, err := s.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := mustNew(t, "jwt-secret", "other").Open(raw); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("expected ErrOpenFailed for other purpose, got %v", err)
	}
	if _, err := mustNew(t, "other-secret", "password-reset").Open(raw); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("expected ErrOpenFailed for other key, got %v", err)
	}
}

func TestSealer_Malformed(t *testing.T) {
	s := mustNew(t, "k", "p")

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "not base64", input: "%%%", want: ErrMalformed},
		{name: "too short", input: base64.RawURLEncoding.EncodeToString([]byte{0, 1, 2}), want: ErrMalformed},
		{name: "bad version", input: base64.RawURLEncoding.EncodeToString(append([]byte{0, 9}, make([]byte, 40)...)), want: ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.OpenString(tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, "p"); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := mustNew(t, "k", "p").Seal(nil); !errors.Is(err, ErrEmptyPlaintext) {
		t.Fatalf("expected ErrEmptyPlaintext, got %v", err)
	}
}
