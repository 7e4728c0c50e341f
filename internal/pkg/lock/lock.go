// Package lock provides short-lived named locks used to serialize work on a
// single key across service replicas.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when another holder owns the key.
	ErrNotAcquired = errors.New("lock: already held")
	// ErrInvalidTTL is returned for a non-positive ttl, which would leave the key without expiry.
	ErrInvalidTTL = errors.New("lock: ttl must be positive")
)

// Locker acquires a lock on key for at most ttl. The returned release func
// must be called once the protected work is done.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only while it still carries our token, so a
// holder whose ttl expired cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis returns a Redis locker. Keys are stored under "lock:".
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: "lock:"}
}

// Acquire returns ErrNotAcquired when key is held by someone else.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	fk := r.prefix + key
	ok, err := r.client.SetNX(ctx, fk, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{fk}, token).Err()
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Noop never blocks. It is used when no shared store is configured.
type Noop struct{}

// NewNoop returns a Locker that always succeeds.
func NewNoop() Noop { return Noop{} }

// Acquire always succeeds.
func (Noop) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
