package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-known server responses.
// Use errors.Is() to check.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRowNotFound  = errors.New("row not found")
	ErrRunNotReady  = errors.New("run not ready")
)

// APIError is a non-2xx server response. Well-known codes unwrap to
// the sentinel errors above.
type APIError struct {
	Status  int    // HTTP status
	Code    string // machine-readable error class
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sitescore: %s (http %d, code %s)", e.Message, e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "unauthorized":
		return ErrUnauthorized
	case "row_not_found":
		return ErrRowNotFound
	case "run_not_ready":
		return ErrRunNotReady
	}
	return nil
}
