package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultTokenSize is the number of random bytes in a Token (256 bits).
const DefaultTokenSize = 32

// Token generates unguessable URL-safe strings from crypto/rand.
type Token struct {
	size int
}

// NewToken returns a Token generator producing size random bytes per token.
// Sizes below 16 bytes are raised to DefaultTokenSize.
func NewToken(size int) *Token {
	if size < 16 {
		size = DefaultTokenSize
	}
	return &Token{size: size}
}

// Generate returns a base64url (unpadded) encoded random token.
func (t *Token) Generate() string {
	b := make([]byte, t.size)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
