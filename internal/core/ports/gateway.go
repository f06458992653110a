package ports

import (
	"context"
	"encoding/json"
)

// Envelope is a decoded JSON response body. The backend answers with a JSON
// object regardless of HTTP status, so callers branch on which keys are
// present rather than on the status code.
type Envelope map[string]json.RawMessage

// Has reports whether key is present with a non-null, non-empty value.
func (e Envelope) Has(key string) bool {
	raw, ok := e[key]
	if !ok {
		return false
	}
	switch string(raw) {
	case "null", `""`, "false":
		return false
	}
	return true
}

// String returns the value under key when it is a JSON string, "" otherwise.
func (e Envelope) String(key string) string {
	var s string
	if raw, ok := e[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Decode unmarshals the value under key into v.
func (e Envelope) Decode(key string, v any) error {
	raw, ok := e[key]
	if !ok {
		return &MissingFieldError{Field: key}
	}
	return json.Unmarshal(raw, v)
}

// MissingFieldError is returned by Decode when the key is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "response missing field " + e.Field
}

// Gateway performs JSON calls against the backend. Call attaches the session
// credential; PublicCall does not. Both decode the body regardless of status.
type Gateway interface {
	Call(ctx context.Context, endpoint, method string, body any) (Envelope, error)
	PublicCall(ctx context.Context, endpoint, method string, body any) (Envelope, error)
}
