package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed digest for short secrets such as reset codes, where a
// slow password hash would only add latency. Output is lowercase hex.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	sum := s.sum(str)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out, nil
}

func (s *HMACSHA256) Verify(hashed, str string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) != sha256.Size {
		return false
	}

	return hmac.Equal(want, s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(str))
	return m.Sum(nil)
}
