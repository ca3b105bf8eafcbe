package soapnotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ot-backend/internal/llm"
	"ot-backend/internal/shared/metrics"
)

// Request is therapist shorthand plus optional background passed through to
// the model untouched.
type Request struct {
	Shorthand     string          `json:"shorthand"`
	ClientContext json.RawMessage `json:"clientContext,omitempty"`
}

// Note is a SOAP note as bullets plus the gaps the model could not fill.
type Note struct {
	Bullets     []string `json:"bullets"`
	MissingInfo []string `json:"missing_info"`
}

// Service generates SOAP notes with one schema-constrained completion.
type Service struct {
	LLM llm.Client
	// Model overrides the client's default model when set.
	Model string
}

// NewService constructs a Service.
func NewService(client llm.Client, model string) *Service {
	return &Service{LLM: client, Model: model}
}

// Generate validates the shorthand and requests the note. Blank shorthand
// fails with ErrShorthandRequired before any completion is sent.
func (s *Service) Generate(ctx context.Context, req Request) (note Note, err error) {
	if strings.TrimSpace(req.Shorthand) == "" {
		return Note{}, ErrShorthandRequired
	}
	start := time.Now()
	defer func() {
		metrics.ObserveOperation("soap_notes", llm.Outcome(err), time.Since(start))
	}()

	note, err = llm.CompleteAs[Note](ctx, s.LLM, llm.CompletionRequest{
		SystemPrompt: llm.MustPrompt(llm.PromptSoapNotes),
		UserPayload:  req,
		SchemaName:   llm.SchemaClinicalNote,
		Schema:       llm.ClinicalNoteSchema(),
		Model:        s.Model,
	})
	if err != nil {
		return Note{}, fmt.Errorf("soap note: %w", err)
	}
	if note.MissingInfo == nil {
		note.MissingInfo = []string{}
	}
	return note, nil
}
