package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession             = errors.New("no valid session")
	ErrNegativeQuantity      = errors.New("quantity cannot be negative")
	ErrUnknownIngredient     = errors.New("ingredient not found")
	ErrAlreadyLoaded         = errors.New("collection already loaded")
	ErrNotBrowsePage         = errors.New("only available when browsing the cabinet")
	ErrInvalidIngredientType = errors.New("invalid ingredient type")
	ErrInvalidInput          = errors.New("invalid input")
)

// BackendError is an error the backend reported in its JSON body under
// the "error" or "message" key.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// TransportError wraps a failure to reach the backend or to decode its reply.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
