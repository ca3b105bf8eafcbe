package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedSchemasCompile(t *testing.T) {
	for name, s := range map[string]Schema{
		SchemaOverview:     OverviewSchema(),
		SchemaPlan:         PlanSchema(),
		SchemaClinicalNote: ClinicalNoteSchema(),
	} {
		if s.IsZero() {
			t.Fatalf("%s schema is empty", name)
		}
		if !json.Valid(s.JSON()) {
			t.Fatalf("%s schema is not valid JSON", name)
		}
	}
}

func TestNewSchemaRejectsOpenObjects(t *testing.T) {
	cases := map[string]string{
		"additional allowed": `{"type":"object","properties":{"a":{"type":"string"}},"required":["a"]}`,
		"missing required":   `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"string"}},"required":["a"],"additionalProperties":false}`,
		"nested open":        `{"type":"object","properties":{"xs":{"type":"array","items":{"type":"object","properties":{"v":{"type":"string"}},"required":["v"]}}},"required":["xs"],"additionalProperties":false}`,
		"root not object":    `{"type":"string"}`,
		"no properties":      `{"type":"object","additionalProperties":false}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewSchema([]byte(raw)); err == nil {
				t.Fatalf("expected contract error")
			}
		})
	}
}

func TestValidateOverview(t *testing.T) {
	s := OverviewSchema()
	ok := `{"functional_findings":"a","performance_factors":"b","functional_impact":"c","clinical_justification":"d"}`
	if err := s.Validate([]byte(ok)); err != nil {
		t.Fatalf("Validate(ok): %v", err)
	}

	missing := `{"functional_findings":"a"}`
	err := s.Validate([]byte(missing))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	var serr *SchemaError
	if !errors.As(err, &serr) || len(serr.Problems) == 0 {
		t.Fatalf("expected SchemaError with problems, got %v", err)
	}

	extra := `{"functional_findings":"a","performance_factors":"b","functional_impact":"c","clinical_justification":"d","x":1}`
	if err := s.Validate([]byte(extra)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected extra property to be rejected, got %v", err)
	}
}

func TestValidatePlanQuoteBounds(t *testing.T) {
	s := PlanSchema()
	for _, tc := range []struct {
		quotes string
		valid  bool
	}{
		{`["a"]`, false},
		{`["a","b"]`, true},
		{`["a","b","c"]`, true},
		{`["a","b","c","d"]`, false},
	} {
		doc := `{"ai_suggested_focus_area":"x","evidence_quotes":` + tc.quotes + `}`
		err := s.Validate([]byte(doc))
		if tc.valid && err != nil {
			t.Fatalf("quotes %s: unexpected error %v", tc.quotes, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("quotes %s: expected error", tc.quotes)
		}
	}
}

func TestInsightsSchemaExactCount(t *testing.T) {
	item := `{"pillar_name":"Physical","pillar_score":3,"trend_statement":"t","consider_statement":"c"}`
	two, err := InsightsSchema(2)
	if err != nil {
		t.Fatalf("InsightsSchema(2): %v", err)
	}
	if err := two.Validate([]byte(`{"insights":[` + item + `,` + item + `]}`)); err != nil {
		t.Fatalf("two items: %v", err)
	}
	if err := two.Validate([]byte(`{"insights":[` + item + `]}`)); err == nil {
		t.Fatalf("expected one item to fail for n=2")
	}

	zero, err := InsightsSchema(0)
	if err != nil {
		t.Fatalf("InsightsSchema(0): %v", err)
	}
	if err := zero.Validate([]byte(`{"insights":[]}`)); err != nil {
		t.Fatalf("empty insights: %v", err)
	}

	five, err := InsightsSchema(5)
	if err != nil {
		t.Fatalf("InsightsSchema(5): %v", err)
	}
	if !strings.Contains(string(five.JSON()), `"maxItems":5`) {
		t.Fatalf("expected maxItems 5 in %s", five.JSON())
	}
}

func TestPromptTemplates(t *testing.T) {
	for _, name := range []string{PromptOverview, PromptPillarInsight, PromptInterventionPlan, PromptSoapNotes} {
		p, ok := PromptTemplate(name)
		if !ok || strings.TrimSpace(p) == "" {
			t.Fatalf("prompt %s missing", name)
		}
	}
	if _, ok := PromptTemplate("nope"); ok {
		t.Fatalf("unknown prompt should not resolve")
	}
}
