package assessments

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// PillarResponse is one pillar's answers as recorded by the intake UI.
type PillarResponse struct {
	Rating  *float64       `json:"rating"`
	Answers Object[string] `json:"answers"`
}

// Assessment is a client's pillar self-assessment. It is decoded from the
// request body and re-encoded as received, with insignificant whitespace
// removed.
type Assessment struct {
	SelectedTop3 []PillarID             `json:"selectedTop3,omitempty"`
	Priorities   []PillarID             `json:"priorities,omitempty"`
	Responses    Object[PillarResponse] `json:"responses"`
	Scores       Object[*float64]       `json:"scores"`
	Reflections  Object[Object[string]] `json:"reflections"`

	raw json.RawMessage
}

type assessmentFields Assessment

// UnmarshalJSON decodes the known fields and keeps the original document.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("assessment must be a JSON object")
	}
	var f assessmentFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return err
	}
	*a = Assessment(f)
	a.raw = compact.Bytes()
	return nil
}

// MarshalJSON returns the document as received, or the decoded fields for
// assessments built in code.
func (a Assessment) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	return json.Marshal(assessmentFields(a))
}

// Selected returns the prioritized pillars: selectedTop3, else priorities,
// else an empty list.
func (a *Assessment) Selected() []PillarID {
	switch {
	case a.SelectedTop3 != nil:
		return a.SelectedTop3
	case a.Priorities != nil:
		return a.Priorities
	default:
		return []PillarID{}
	}
}

// PillarScores projects ratings out of responses. Explicit scores fill in
// pillars that have no response record. Null ratings and scores are left out.
func (a *Assessment) PillarScores() Object[float64] {
	var out Object[float64]
	for _, k := range a.Responses.Keys() {
		r, _ := a.Responses.Get(k)
		if r.Rating != nil {
			out.Set(k, *r.Rating)
		}
	}
	for _, k := range a.Scores.Keys() {
		if _, ok := a.Responses.Get(k); ok {
			continue
		}
		if v, _ := a.Scores.Get(k); v != nil {
			out.Set(k, *v)
		}
	}
	return out
}

// PillarReflections projects answers out of responses. Explicit reflections
// fill in pillars that have no response record.
func (a *Assessment) PillarReflections() Object[Object[string]] {
	var out Object[Object[string]]
	for _, k := range a.Responses.Keys() {
		r, _ := a.Responses.Get(k)
		out.Set(k, r.Answers)
	}
	for _, k := range a.Reflections.Keys() {
		if _, ok := a.Responses.Get(k); ok {
			continue
		}
		v, _ := a.Reflections.Get(k)
		out.Set(k, v)
	}
	return out
}

// StitchedText joins every answer with single spaces, pillar by pillar and
// question by question.
func (a *Assessment) StitchedText() string {
	var parts []string
	refl := a.PillarReflections()
	for _, answers := range refl.Values() {
		parts = append(parts, answers.Values()...)
	}
	return strings.Join(parts, " ")
}

// InsightsPayload is the user message for the pillar-insights call.
type InsightsPayload struct {
	SelectedTop3  []PillarID             `json:"selected_top3"`
	Scores        Object[float64]        `json:"scores"`
	Reflections   Object[Object[string]] `json:"reflections"`
	PillarNameMap Object[string]         `json:"pillar_name_map"`
}

// PlanPayload is the user message for the intervention-plan call.
type PlanPayload struct {
	Text string `json:"text"`
}

// OverviewResult is the OTPF-4 overview.
type OverviewResult struct {
	FunctionalFindings    string `json:"functional_findings"`
	PerformanceFactors    string `json:"performance_factors"`
	FunctionalImpact      string `json:"functional_impact"`
	ClinicalJustification string `json:"clinical_justification"`
}

// PillarInsight is one insight per selected pillar.
type PillarInsight struct {
	PillarName        string  `json:"pillar_name"`
	PillarScore       float64 `json:"pillar_score"`
	TrendStatement    string  `json:"trend_statement"`
	ConsiderStatement string  `json:"consider_statement"`
}

// InsightsResult holds insights in selected-pillar order.
type InsightsResult struct {
	Insights []PillarInsight `json:"insights"`
}

// PlanResult is the suggested intervention focus with supporting quotes.
type PlanResult struct {
	AISuggestedFocusArea string   `json:"ai_suggested_focus_area"`
	EvidenceQuotes       []string `json:"evidence_quotes"`
}

// AnalysisResult is the merged envelope returned by Analyze.
type AnalysisResult struct {
	Overview OverviewResult `json:"overview"`
	Insights InsightsResult `json:"insights"`
	Plan     PlanResult     `json:"plan"`
}
