package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrTooLong is returned when plaintext plus pepper exceeds bcrypt's input limit.
var ErrTooLong = errors.New("hash: bcrypt input longer than 72 bytes")

const bcryptMaxInput = 72

// Bcrypt hashes passwords with bcrypt. Hashes produced by other bcrypt
// implementations ($2a$, $2b$) verify as long as no pepper is configured.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt clamps cost into bcrypt's range; zero selects bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	input := []byte(plaintext + h.pepper)
	if len(input) > bcryptMaxInput {
		return nil, ErrTooLong
	}

	return bcrypt.GenerateFromPassword(input, h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	if hashed == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
