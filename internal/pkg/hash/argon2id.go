package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errMalformedArgon2id = errors.New("hash: malformed argon2id hash")

// Argon2idParams are the cost settings written into every encoded hash, so
// changing them never breaks verification of older hashes.
type Argon2idParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      32 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2id hashes passwords into the PHC string format
// $argon2id$v=19$m=...,t=...,p=...$salt$key.
type Argon2id struct {
	params Argon2idParams
	pepper string
}

func NewArgon2id(pepper string) *Argon2id {
	return NewArgon2idWith(DefaultArgon2idParams, pepper)
}

func NewArgon2idWith(params Argon2idParams, pepper string) *Argon2id {
	return &Argon2id{params: params, pepper: pepper}
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	p := a.params
	key := argon2.IDKey([]byte(str+a.pepper), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return []byte(fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)), nil
}

func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" {
		return false
	}

	p, salt, want, err := decodeArgon2id(hashed)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(str+a.pepper), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want))) //nolint:gosec // key length comes from our own encoding
	return subtle.ConstantTimeCompare(want, got) == 1
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var p Argon2idParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedArgon2id
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedArgon2id
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, errMalformedArgon2id
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedArgon2id
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedArgon2id
	}

	p.SaltLength = uint32(len(salt)) //nolint:gosec // bounded by the encoded string
	p.KeyLength = uint32(len(key))   //nolint:gosec // bounded by the encoded string
	return p, salt, key, nil
}
