package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"ot-backend/internal/bootstrap"
	"ot-backend/internal/llm"
	"ot-backend/internal/shared/config"
)

const (
	overviewFixture = `{"functional_findings":"a","performance_factors":"b","functional_impact":"c","clinical_justification":"d"}`
	insightsFixture = `{"insights":[{"pillar_name":"physical","pillar_score":3,"trend_statement":"t","consider_statement":"c"}]}`
	planFixture     = `{"ai_suggested_focus_area":"sleep","evidence_quotes":["q1","q2"]}`
	noteFixture     = `{"bullets":["S: fatigue","O: n/a","A: n/a","P: n/a"],"missing_info":[]}`
)

func stubClient(payloads map[string]string) llm.Client {
	var mu sync.Mutex
	return llm.ClientFunc(func(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
		text, err := req.PayloadText()
		if err != nil {
			return nil, err
		}
		mu.Lock()
		payloads[req.SchemaName] = text
		mu.Unlock()
		switch req.SchemaName {
		case llm.SchemaOverview:
			return json.RawMessage(overviewFixture), nil
		case llm.SchemaInsights:
			return json.RawMessage(insightsFixture), nil
		case llm.SchemaPlan:
			return json.RawMessage(planFixture), nil
		default:
			return json.RawMessage(noteFixture), nil
		}
	})
}

func withStubApp(t *testing.T) (map[string]string, *config.Config) {
	t.Helper()
	payloads := map[string]string{}
	var seen config.Config
	prev := buildApp
	buildApp = func(cfg config.Config) (*bootstrap.App, error) {
		seen = cfg
		return bootstrap.BuildWithClient(cfg, stubClient(payloads))
	}
	t.Cleanup(func() {
		buildApp = prev
		provider, model, outPath = "", "", ""
		assessmentPath, pillarNamesPath = "", ""
		shorthand, contextPath = "", ""
	})
	return payloads, &seen
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunAnalyzePrintsResult(t *testing.T) {
	payloads, _ := withStubApp(t)
	assessmentPath = writeFile(t, "assessment.json", `{"selectedTop3":[1],"responses":{"1":{"rating":3,"answers":{"q1":"tired"}}}}`)
	pillarNamesPath = writeFile(t, "names.json", `{"1":"body"}`)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := runAnalyze(cmd, nil); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	for _, key := range []string{"overview", "insights", "plan"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing %s in %s", key, out.String())
		}
	}
	if !strings.Contains(payloads[llm.SchemaInsights], `"pillar_name_map":{"1":"body"}`) {
		t.Fatalf("pillar names not forwarded: %s", payloads[llm.SchemaInsights])
	}
	if payloads[llm.SchemaPlan] != `{"text":"tired"}` {
		t.Fatalf("unexpected plan payload: %s", payloads[llm.SchemaPlan])
	}
}

func TestRunAnalyzeRejectsNonObjectAssessment(t *testing.T) {
	withStubApp(t)
	assessmentPath = writeFile(t, "assessment.json", `[1,2,3]`)

	if err := runAnalyze(&cobra.Command{}, nil); err == nil {
		t.Fatalf("expected error for array assessment")
	}
}

func TestRunSoapWritesOutFile(t *testing.T) {
	payloads, _ := withStubApp(t)
	shorthand = "pt c/o fatigue"
	contextPath = writeFile(t, "ctx.json", `{"age":70}`)
	outPath = filepath.Join(t.TempDir(), "note.json")

	if err := runSoap(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runSoap: %v", err)
	}
	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}
	if !strings.Contains(string(raw), `"S: fatigue"`) {
		t.Fatalf("unexpected note: %s", raw)
	}
	if payloads[llm.SchemaClinicalNote] != `{"shorthand":"pt c/o fatigue","clientContext":{"age":70}}` {
		t.Fatalf("unexpected soap payload: %s", payloads[llm.SchemaClinicalNote])
	}
}

func TestRunSoapRejectsInvalidContext(t *testing.T) {
	withStubApp(t)
	shorthand = "pt c/o fatigue"
	contextPath = writeFile(t, "ctx.json", `{not json`)

	if err := runSoap(&cobra.Command{}, nil); err == nil {
		t.Fatalf("expected invalid context error")
	}
}

func TestLoadAppProviderOverride(t *testing.T) {
	_, seen := withStubApp(t)
	provider = "Gemini"

	if _, err := loadApp(); err != nil {
		t.Fatalf("loadApp: %v", err)
	}
	if seen.LLMProvider != "gemini" || seen.LLMModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected provider/model: %s %s", seen.LLMProvider, seen.LLMModel)
	}

	model = "gemini-2.5-pro"
	if _, err := loadApp(); err != nil {
		t.Fatalf("loadApp: %v", err)
	}
	if seen.LLMModel != "gemini-2.5-pro" {
		t.Fatalf("model override ignored: %s", seen.LLMModel)
	}
}
