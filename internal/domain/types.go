package domain

import (
	"encoding/json"
	"errors"
)

// --- Shared Custom Types ---

// RawJSON is a helper for handling raw JSON bytes (like json.RawMessage)
// such as the cart-add response forwarded on the bus untouched.
type RawJSON json.RawMessage

// MarshalJSON returns j as the JSON encoding of j.
// Required because 'type RawJSON json.RawMessage' strips the underlying MarshalJSON method.
func (j RawJSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON sets *j to a copy of data.
func (j *RawJSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("RawJSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

