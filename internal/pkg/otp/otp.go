package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	// CodeMin and CodeMax bound every generated code, so codes are always 6 digits.
	CodeMin = 100000
	CodeMax = 999999
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator draws codes uniformly from [CodeMin, CodeMax] using crypto/rand.
type RandomGenerator struct{}

// NewGenerator returns a RandomGenerator.
func NewGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a uniformly random 6-digit code.
func (*RandomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return "", fmt.Errorf("otp: random source: %w", err)
	}

	return strconv.FormatInt(n.Int64()+CodeMin, 10), nil
}
