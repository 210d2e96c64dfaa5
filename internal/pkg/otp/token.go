package otp

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/seal"
)

const tokenPurpose = "password-reset-otp"

// ErrInvalidToken is returned by Open for tokens that fail authentication or parsing.
var ErrInvalidToken = errors.New("otp: invalid token")

// Claims is the state carried inside a token.
type Claims struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	Verified  bool
}

// Codec seals Claims into opaque tokens. Tokens are AES-256-GCM encrypted under
// sha256(secret) with a fresh nonce each time and fail closed on any tampering.
type Codec struct {
	sealer *seal.Sealer
	clock  clock.Clocker
	ttl    time.Duration
}

// NewCodec builds a Codec whose tokens expire ttl after Encode.
func NewCodec(secret []byte, ttl time.Duration, clk clock.Clocker) (*Codec, error) {
	sealer, err := seal.New(secret, tokenPurpose)
	if err != nil {
		return nil, err
	}

	return &Codec{sealer: sealer, clock: clk, ttl: ttl}, nil
}

// TTL reports how long encoded tokens stay valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode issues an unverified token for email and code expiring ttl from now.
func (c *Codec) Encode(email, code string) (string, time.Time, error) {
	exp := c.clock.Now().Add(c.ttl)
	token, err := c.Seal(Claims{Email: email, Code: code, ExpiresAt: exp})
	return token, exp, err
}

// Seal encodes arbitrary claims. The plaintext is "email:code:expiryUnixMillis:verified".
func (c *Codec) Seal(cl Claims) (string, error) {
	verified := "0"
	if cl.Verified {
		verified = "1"
	}

	plain := strings.Join([]string{
		cl.Email,
		cl.Code,
		strconv.FormatInt(cl.ExpiresAt.UnixMilli(), 10),
		verified,
	}, ":")

	return c.sealer.SealString(plain)
}

// Open authenticates and parses a token without checking expiry.
func (c *Codec) Open(token string) (Claims, error) {
	plain, err := c.sealer.OpenString(token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	// Parse from the right: the email is the only field that may contain ':'.
	parts := strings.Split(plain, ":")
	if len(parts) < 4 {
		return Claims{}, ErrInvalidToken
	}
	n := len(parts)

	expMillis, err := strconv.ParseInt(parts[n-2], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var verified bool
	switch parts[n-1] {
	case "0":
	case "1":
		verified = true
	default:
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Email:     strings.Join(parts[:n-3], ":"),
		Code:      parts[n-3],
		ExpiresAt: time.UnixMilli(expMillis),
		Verified:  verified,
	}, nil
}

// DecodeAndVerify reports whether token was issued for email and code and has
// not expired. Any decoding problem yields false.
func (c *Codec) DecodeAndVerify(token, email, code string) bool {
	cl, err := c.Open(token)
	if err != nil {
		return false
	}

	if !c.clock.Now().Before(cl.ExpiresAt) {
		return false
	}

	emailOK := subtle.ConstantTimeCompare([]byte(cl.Email), []byte(email)) == 1
	codeOK := subtle.ConstantTimeCompare([]byte(cl.Code), []byte(code)) == 1
	return emailOK && codeOK
}
