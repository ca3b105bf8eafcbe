package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ot-backend/internal/llm"
	"ot-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Client implements llm.Client using OpenAI Chat Completions with
// json_schema response formats.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient constructs a new OpenAI client. An empty model selects DefaultModel.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  apiKey,
		model:   strings.TrimSpace(model),
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the default model.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal string  `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Complete sends one system and one user message and returns the parsed
// message content. Missing content is returned as an empty object.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	payload, err := req.PayloadText()
	if err != nil {
		return nil, err
	}
	model := c.model
	if strings.TrimSpace(req.Model) != "" {
		model = strings.TrimSpace(req.Model)
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: payload},
		},
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: req.SchemaName, Schema: req.Schema.JSON()},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("%w: openai: %v", llm.ErrTimeout, err)
		}
		return nil, &llm.ProviderError{Provider: "openai", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "openai", Status: resp.StatusCode, Message: err.Error()}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &llm.ProviderError{Provider: "openai", Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return nil, &llm.ProviderError{Provider: "openai", Status: resp.StatusCode, Message: "response parse: " + err.Error()}
	}
	if parsed.Error != nil {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Status:   resp.StatusCode,
			Type:     parsed.Error.Type,
			Message:  parsed.Error.Message,
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &llm.ProviderError{Provider: "openai", Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	logUsage(ctx, model, req.SchemaName, parsed.Usage)

	var content string
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != nil {
		content = *parsed.Choices[0].Message.Content
	}
	return llm.DecodeContent(content)
}

func logUsage(ctx context.Context, model, schema string, u *usage) {
	fields := map[string]any{
		"model":  model,
		"schema": schema,
	}
	if id := telemetry.RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("openai usage", fields)
}

var _ llm.Client = (*Client)(nil)
