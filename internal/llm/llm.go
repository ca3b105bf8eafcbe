package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client performs one schema-constrained completion and returns the decoded
// JSON object. Implementations do no validation beyond what the provider
// enforces; see WithValidation.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req CompletionRequest) (json.RawMessage, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	return f(ctx, req)
}

// CompletionRequest is one system prompt, one user payload and the schema the
// reply must satisfy.
type CompletionRequest struct {
	SystemPrompt string
	// UserPayload is serialized to JSON text and sent as the user message.
	UserPayload any
	SchemaName  string
	Schema      Schema
	// Model overrides the client's default model when set.
	Model string
}

// Check reports whether the request can be sent.
func (r CompletionRequest) Check() error {
	if strings.TrimSpace(r.SystemPrompt) == "" {
		return errors.New("llm: system prompt is required")
	}
	if strings.TrimSpace(r.SchemaName) == "" {
		return errors.New("llm: schema name is required")
	}
	if r.Schema.IsZero() {
		return fmt.Errorf("llm: schema %q is empty", r.SchemaName)
	}
	return nil
}

// PayloadText serializes the user payload the way it is sent to the provider.
func (r CompletionRequest) PayloadText() (string, error) {
	b, err := json.Marshal(r.UserPayload)
	if err != nil {
		return "", fmt.Errorf("llm: encode %s payload: %w", r.SchemaName, err)
	}
	return string(b), nil
}

// CompleteAs runs req and decodes the result into T.
func CompleteAs[T any](ctx context.Context, c Client, req CompletionRequest) (T, error) {
	var out T
	raw, err := c.Complete(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: decode %s: %v", ErrSchemaMismatch, req.SchemaName, err)
	}
	return out, nil
}

// DecodeContent parses message content returned by a provider. Empty content
// is treated as an empty object so missing fields surface as a schema problem.
func DecodeContent(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, truncate(content, 200))
	}
	return json.RawMessage(content), nil
}

// PlaceholderClient is used when no provider credentials are configured.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(context.Context, CompletionRequest) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
