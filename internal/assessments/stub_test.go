package assessments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ot-backend/internal/llm"
)

const (
	overviewFixture = `{"functional_findings":"Reports poor sleep.","performance_factors":"Fatigue limits work tasks.","functional_impact":"Reduced participation.","clinical_justification":"Skilled OT indicated."}`
	planFixture     = `{"ai_suggested_focus_area":"Build a wind-down routine to address fatigue.","evidence_quotes":["sleep is poor","tired at work"]}`
)

// recordingLLM answers with fixtures and records every request it sees.
type recordingLLM struct {
	mu       sync.Mutex
	calls    []llm.CompletionRequest
	payloads map[string]string

	overview string
	plan     string
	fail     map[string]error
	// block makes the named schema wait for cancellation.
	block map[string]bool
}

func newRecordingLLM() *recordingLLM {
	return &recordingLLM{
		payloads: map[string]string{},
		overview: overviewFixture,
		plan:     planFixture,
		fail:     map[string]error{},
		block:    map[string]bool{},
	}
}

func (r *recordingLLM) Complete(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	payload, err := req.PayloadText()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.payloads[req.SchemaName] = payload
	failErr := r.fail[req.SchemaName]
	block := r.block[req.SchemaName]
	r.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if failErr != nil {
		return nil, failErr
	}
	switch req.SchemaName {
	case llm.SchemaOverview:
		return json.RawMessage(r.overview), nil
	case llm.SchemaPlan:
		return json.RawMessage(r.plan), nil
	case llm.SchemaInsights:
		return echoInsights(payload)
	default:
		return nil, fmt.Errorf("unexpected schema %s", req.SchemaName)
	}
}

func (r *recordingLLM) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingLLM) payload(schema string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloads[schema]
}

// echoInsights builds one conforming insight per selected pillar, in order.
func echoInsights(payload string) (json.RawMessage, error) {
	var in struct {
		SelectedTop3  []PillarID         `json:"selected_top3"`
		Scores        map[string]float64 `json:"scores"`
		PillarNameMap map[string]string  `json:"pillar_name_map"`
	}
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		return nil, err
	}
	out := InsightsResult{Insights: []PillarInsight{}}
	for _, id := range in.SelectedTop3 {
		out.Insights = append(out.Insights, PillarInsight{
			PillarName:        in.PillarNameMap[id.Key()],
			PillarScore:       in.Scores[id.Key()],
			TrendStatement:    "trend " + id.Key(),
			ConsiderStatement: "consider " + id.Key(),
		})
	}
	return json.Marshal(out)
}

// validated wraps c the way bootstrap does, so fixtures are checked against
// the schemas.
func validated(c llm.Client) llm.Client {
	return llm.Chain(c, llm.WithValidation())
}
