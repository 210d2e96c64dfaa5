// Package config exposes typed, read-only access to application settings.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer settings as durations in the unit named by the getter.
type TimeConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}

// NumberConfig reads numeric settings. Missing or unparsable values yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// IsSet reports whether key has a value in any source.
	IsSet(key string) bool

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. It returns nil when the value is not valid base64.
	GetBinary(key string) []byte

	// GetArray reads a YAML list or a comma separated string. Empty elements are dropped.
	GetArray(key string) []string

	// GetMap reads "k:v,k:v" pairs.
	GetMap(key string) map[string]string
}
