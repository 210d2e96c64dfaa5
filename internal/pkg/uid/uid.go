// Package uid generates identifiers for requests, events and records.
package uid

// StringID generates string identifiers such as correlation IDs.
type StringID interface {
	Generate() string
}

// NumberID generates time-ordered numeric identifiers.
type NumberID interface {
	Generate() int64
}
