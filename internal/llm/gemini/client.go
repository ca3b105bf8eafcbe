package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ot-backend/internal/llm"
	"ot-backend/internal/shared/telemetry"
)

const DefaultModel = "gemini-2.5-flash"

// generator is the slice of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API with JSON-schema
// constrained output.
type Client struct {
	models generator
	model  string
}

// NewClient builds a Gemini API client for apiKey.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newWithGenerator(cli.Models, model), nil
}

func newWithGenerator(g generator, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{models: g, model: strings.TrimSpace(model)}
}

// Model returns the default model.
func (c *Client) Model() string { return c.model }

// Complete sends the system prompt as the system instruction and the payload
// as the single user turn.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	payload, err := req.PayloadText()
	if err != nil {
		return nil, err
	}
	model := c.model
	if strings.TrimSpace(req.Model) != "" {
		model = strings.TrimSpace(req.Model)
	}

	resp, err := c.models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(payload, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction:  genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: req.Schema.JSON(),
		},
	)
	if err != nil {
		return nil, mapError(err)
	}
	logUsage(ctx, model, req.SchemaName, resp)
	return llm.DecodeContent(responseText(resp))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini: %v", llm.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{Provider: "gemini", Status: apiErr.Code, Type: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.ProviderError{Provider: "gemini", Status: apiErrPtr.Code, Type: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return &llm.ProviderError{Provider: "gemini", Message: err.Error()}
}

func logUsage(ctx context.Context, model, schema string, resp *genai.GenerateContentResponse) {
	fields := map[string]any{
		"model":  model,
		"schema": schema,
	}
	if id := telemetry.RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if resp != nil && resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("gemini usage", fields)
}

var _ llm.Client = (*Client)(nil)
