package models

import (
	"bytes"
	"encoding/json"
)

// Maybe tracks presence and value for partial-update semantics. This
// enables proper tri-state handling that Go pointers cannot express for
// every field shape:
//   - unset: field absent from the update (don't change)
//   - set: field present, replace the previous value (even with a zero value)
//
// The zero Maybe is unset.
type Maybe[T any] struct {
	value   T
	present bool
}

// Set returns a Maybe holding the given value.
func Set[T any](value T) Maybe[T] {
	return Maybe[T]{value: value, present: true}
}

// Unset returns an absent Maybe. Equivalent to the zero value; provided
// for readability at call sites.
func Unset[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the held value and whether it was provided.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.present
}

// IsSet reports whether a value was provided.
func (m Maybe[T]) IsSet() bool {
	return m.present
}

// UnmarshalJSON implements json.Unmarshaler. When this method is
// called, the field was present in the JSON.
func (m *Maybe[T]) UnmarshalJSON(data []byte) error {
	m.present = true
	if string(bytes.TrimSpace(data)) == "null" {
		var zero T
		m.value = zero
		return nil
	}
	return json.Unmarshal(data, &m.value)
}

// MarshalJSON implements json.Marshaler. Absent values encode as null;
// callers that need field omission should use pointer-to-Maybe with
// omitempty or shape their own wire types.
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}
