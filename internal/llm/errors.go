package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidJSON    = errors.New("llm: invalid JSON content")
	ErrSchemaMismatch = errors.New("llm: response does not match schema")
	ErrTimeout        = errors.New("llm: request timed out")
	ErrNotConfigured  = errors.New("llm: provider not configured")
)

// ProviderError is a failure reported by the completion service.
type ProviderError struct {
	Provider string
	Status   int
	Type     string
	Message  string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status > 0 && e.Type != "":
		return fmt.Sprintf("%s http status %d: %s (%s)", e.Provider, e.Status, e.Message, e.Type)
	case e.Status > 0:
		return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	var perr *ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &perr):
		return "provider_error"
	default:
		return "error"
	}
}
