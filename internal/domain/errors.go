package domain

import (
	"errors"
	"fmt"
)

var (
	ErrVariantUnavailable = errors.New("no available variant")
	ErrMalformedResponse  = errors.New("malformed storefront response")
)

// APIError is a non-2xx storefront answer. Message and Description are the
// fields of a JSON error body and stay empty when the body was not JSON.
type APIError struct {
	Status      int
	Message     string
	Description string
}

func (e *APIError) Error() string {
	switch {
	case e.Description != "":
		return fmt.Sprintf("storefront status %d: %s", e.Status, e.Description)
	case e.Message != "":
		return fmt.Sprintf("storefront status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("storefront status %d", e.Status)
}

type MutationKind string

const (
	MutationRejected    MutationKind = "rejected"
	MutationTransport   MutationKind = "transport"
	MutationUnavailable MutationKind = "unavailable"
)

// MutationError is the single failure type of add-to-cart. Message is the
// user-facing text.
type MutationError struct {
	Kind    MutationKind
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("add to cart %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("add to cart %s", e.Kind)
}

func (e *MutationError) Unwrap() error { return e.Err }
