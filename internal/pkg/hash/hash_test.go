package hash

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashers_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		hasher Hash
	}{
		{name: "bcrypt", hasher: NewBcrypt(bcrypt.MinCost, "pepper")},
		{name: "argon2id", hasher: NewArgon2id("pepper")},
		{name: "hmac-sha256", hasher: NewHMACSHA256("secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			hashed, err := tt.hasher.Hash("Sup3rSecret!")

			// Assert
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			if !tt.hasher.Verify(string(hashed), "Sup3rSecret!") {
				t.Fatalf("expected verify to succeed")
			}
			if tt.hasher.Verify(string(hashed), "wrong") {
				t.Fatalf("expected verify to fail for wrong plaintext")
			}
		})
	}
}

func TestArgon2id_EncodedFormat(t *testing.T) {
	hashed, err := NewArgon2id("").Hash("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(string(hashed), "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding %q", hashed)
	}
}

func TestHMACSHA256_BoundToSecret(t *testing.T) {
	a, _ := NewHMACSHA256("one").Hash("a@x.com:482913")
	if NewHMACSHA256("two").Verify(string(a), "a@x.com:482913") {
		t.Fatalf("expected different secret to fail verification")
	}
}

func TestBcrypt_RejectsLongInput(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	_, err := h.Hash(strings.Repeat("a", 70))

	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestNewBcrypt_ClampsCost(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: bcrypt.DefaultCost},
		{in: 1, want: bcrypt.MinCost},
		{in: 99, want: bcrypt.MaxCost},
		{in: 12, want: 12},
	}

	for _, tt := range tests {
		if got := NewBcrypt(tt.in, "").cost; got != tt.want {
			t.Fatalf("cost %d: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestArgon2id_OlderParamsStillVerify(t *testing.T) {
	// Arrange
	old := NewArgon2idWith(Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}, "p")
	hashed, err := old.Hash("Sup3rSecret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	// Act
	ok := NewArgon2id("p").Verify(string(hashed), "Sup3rSecret!")

	// Assert
	if !ok {
		t.Fatalf("expected hash with older params to verify")
	}
}

func TestArgon2id_Malformed(t *testing.T) {
	for _, in := range []string{"", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$a2V5", "$argon2id$v=18$m=1,t=1,p=1$c2FsdA$a2V5", "$argon2id$v=19$m=x$c2FsdA$a2V5"} {
		if NewArgon2id("").Verify(in, "password") {
			t.Fatalf("expected %q to fail", in)
		}
	}
}
