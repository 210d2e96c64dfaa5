// Package seal encrypts small payloads with AES-256-GCM so they can travel
// through clients and brokers without revealing or accepting tampered content.
//
// Output layout (before text encoding):
//
//	[0..1]   uint16 version (big-endian, currently 1)
//	[2..13]  12-byte random nonce
//	[14..]   GCM ciphertext followed by the 16-byte tag
//
// The AES key is sha256(secret). The purpose string is bound as additional
// authenticated data, so a payload sealed for one purpose never opens under another.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version   uint16 = 1
	nonceSize        = 12
	headerLen        = 2 + nonceSize
)

var (
	// ErrEmptySecret indicates New was called without key material.
	ErrEmptySecret = errors.New("seal: secret is empty")
	// ErrEmptyPlaintext indicates an empty payload.
	ErrEmptyPlaintext = errors.New("seal: plaintext is empty")
	// ErrMalformed indicates a payload that is not valid base64 or is truncated.
	ErrMalformed = errors.New("seal: malformed payload")
	// ErrUnsupportedVersion indicates a payload produced by an unknown format version.
	ErrUnsupportedVersion = errors.New("seal: unsupported version")
	// ErrOpenFailed indicates authentication failed: wrong key, wrong purpose or tampering.
	ErrOpenFailed = errors.New("seal: open failed")
)

// Sealer seals and opens payloads for a single purpose. It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
	aad  []byte
}

// New derives an AES-256 key from secret and binds purpose as AAD.
func New(secret []byte, purpose string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key := sha256.Sum256(secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("seal: aes init: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("seal: gcm init: %w", err)
	}

	aad := sha256.Sum256([]byte("purpose=" + purpose))

	return &Sealer{aead: aead, aad: aad[:]}, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+s.aead.Overhead())
	binary.BigEndian.PutUint16(out[0:2], version)
	if _, err := rand.Read(out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}

	return s.aead.Seal(out, out[2:headerLen], plaintext, s.aad), nil
}

// Open authenticates and decrypts a payload produced by Seal.
//
// Every failure after the length and version checks is reported as ErrOpenFailed.
func (s *Sealer) Open(payload []byte) ([]byte, error) {
	if len(payload) < headerLen+s.aead.Overhead() {
		return nil, ErrMalformed
	}
	if v := binary.BigEndian.Uint16(payload[0:2]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	plain, err := s.aead.Open(nil, payload[2:headerLen], payload[headerLen:], s.aad)
	if err != nil {
		return nil, ErrOpenFailed
	}

	return plain, nil
}

// SealString seals plaintext and returns URL-safe unpadded base64 text.
func (s *Sealer) SealString(plaintext string) (string, error) {
	raw, err := s.Seal([]byte(plaintext))
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// OpenString reverses SealString.
func (s *Sealer) OpenString(text string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return "", ErrMalformed
	}

	plain, err := s.Open(raw)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}
