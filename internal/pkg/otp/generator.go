package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	// ErrEmptyAlphabet is returned when the alphabet has no symbols.
	ErrEmptyAlphabet = errors.New("otp: alphabet must not be empty")
	// ErrInvalidLength is returned when the password length is not positive.
	ErrInvalidLength = errors.New("otp: length must be positive")
)

// Generator produces one-time passwords.
type Generator interface {
	Generate() (string, error)
}

// Source returns a uniformly distributed integer in [0, n).
//
// *math/rand/v2.Rand satisfies it, which is handy for deterministic tests.
type Source interface {
	IntN(n int) int
}

// CryptoSource is a Source backed by crypto/rand.
type CryptoSource struct{}

// IntN implements Source.
func (CryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return int(v.Int64())
}

// Alphabet generates passwords of a fixed length from an ordered set of symbols.
type Alphabet struct {
	symbols []rune
	length  int
	src     Source
}

// NewAlphabet builds an Alphabet generator. A nil src falls back to CryptoSource.
// Symbols may be any unicode characters; duplicates weight the draw.
func NewAlphabet(symbols string, length int, src Source) (*Alphabet, error) {
	rs := []rune(symbols)
	if len(rs) == 0 {
		return nil, ErrEmptyAlphabet
	}
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if src == nil {
		src = CryptoSource{}
	}

	return &Alphabet{symbols: rs, length: length, src: src}, nil
}

// Generate returns a new password. It never fails.
func (a *Alphabet) Generate() (string, error) {
	out := make([]rune, a.length)
	for i := range out {
		out[i] = a.symbols[a.src.IntN(len(a.symbols))]
	}
	return string(out), nil
}
