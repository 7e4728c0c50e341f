package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them into durations.
// Missing or malformed keys yield zero.
type TimeConfig interface {
	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetHour reads key as a number of hours.
	GetHour(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or malformed keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint64(key string) uint64
	GetFloat64(key string) float64
}

// Config is the read-only view of runtime configuration used across the app.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// GetBool reads key as a boolean.
	GetBool(key string) bool

	// GetString reads key as a string.
	GetString(key string) string

	// GetBinary reads a base64 encoded value and returns the decoded bytes,
	// or nil when the value is not valid base64.
	GetBinary(key string) []byte

	// GetArray reads a comma separated value, e.g. "a,b,c".
	// Elements are trimmed and empty elements are dropped.
	GetArray(key string) []string

	// GetMap reads a comma separated list of pairs, e.g. "k1:v1,k2:v2".
	// Keys and values are trimmed; pairs without a key are dropped.
	GetMap(key string) map[string]string
}
