package uid

import (
	"encoding/base64"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	gen := NewToken(0)

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		tok := gen.Generate()

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, DefaultTokenSize)

		_, dup := seen[tok]
		require.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestSnowflake(t *testing.T) {
	gen, err := NewSnowflakeNode(1)
	require.NoError(t, err)

	prev := gen.Generate()
	for range 100 {
		next := gen.Generate()
		assert.Greater(t, next, prev)
		prev = next
	}

	_, err = NewSnowflake()
	assert.NoError(t, err)
}

func TestULID(t *testing.T) {
	gen := NewULID()

	a := gen.Generate()
	b := gen.Generate()

	_, err := ulid.ParseStrict(a)
	require.NoError(t, err)
	assert.Less(t, a, b)
}

func TestUUID(t *testing.T) {
	id := NewUUID().Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewUUID().Generate())
}
