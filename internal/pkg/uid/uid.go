// Package uid provides identifier generators: numeric storage ids, sortable
// event ids, correlation ids and unguessable tokens.
package uid

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
