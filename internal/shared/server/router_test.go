package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ot-backend/internal/assessments"
	"ot-backend/internal/llm"
	"ot-backend/internal/services/health"
	"ot-backend/internal/shared/config"
	"ot-backend/internal/soapnotes"
)

func testRouter(cfg config.Config) http.Handler {
	noteClient := llm.ClientFunc(func(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
		return json.RawMessage(`{"bullets":["S","O","A","P"],"missing_info":[]}`), nil
	})
	return NewRouter(RouterDeps{
		Config:          cfg,
		AnalysisHandler: assessments.NewHandler(assessments.NewAnalyzer(llm.PlaceholderClient{}, assessments.AnalyzerConfig{})),
		SoapHandler:     soapnotes.NewHandler(soapnotes.NewService(noteClient, "")),
		Health:          health.NewService("openai", "gpt-4o-mini"),
	})
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serveFrom(h, "203.0.113.7:1234", "", method, path, body)
}

func serveFrom(h http.Handler, remoteAddr, forwardedFor, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(config.Config{})

	resp := serve(r, http.MethodGet, "/api/health", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected health body: %v", body)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestRouterMetrics(t *testing.T) {
	r := testRouter(config.Config{})
	serve(r, http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`)

	resp := serve(r, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ot_operations_total") {
		t.Fatalf("expected operation metrics, got:\n%s", resp.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := testRouter(config.Config{})

	resp := serve(r, http.MethodGet, "/api/ot/unknown", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRouterRateLimitsPerGroup(t *testing.T) {
	r := testRouter(config.Config{
		AnalyzeRate:  0.001,
		AnalyzeBurst: 1,
		SoapRate:     0.001,
		SoapBurst:    1,
	})

	if resp := serve(r, http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`); resp.Code != http.StatusOK {
		t.Fatalf("first soap request expected 200, got %d", resp.Code)
	}
	resp := serve(r, http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second soap request expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// The analyze bucket is separate.
	if resp := serve(r, http.MethodPost, "/api/ot/analyze", `{}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("analyze expected 400 from validation, got %d", resp.Code)
	}
	// Health is never limited.
	for i := 0; i < 3; i++ {
		if resp := serve(r, http.MethodGet, "/api/health", ""); resp.Code != http.StatusOK {
			t.Fatalf("health expected 200, got %d", resp.Code)
		}
	}
}

func TestRouterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := testRouter(config.Config{SoapRate: 0.001, SoapBurst: 1})

	allowed := 0
	for i := 0; i < 20; i++ {
		resp := serveFrom(r, "203.0.113.7:1234", fmt.Sprintf("10.0.0.%d", i), http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`)
		if resp.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("rotating X-Forwarded-For from one peer: expected 1 allowed, got %d", allowed)
	}
}

func TestRouterHonorsForwardedForFromTrustedProxy(t *testing.T) {
	r := testRouter(config.Config{SoapRate: 0.001, SoapBurst: 1, TrustedProxies: []string{"192.0.2.10"}})

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		resp := serveFrom(r, "192.0.2.10:443", client, http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("first request for %s expected 200, got %d", client, resp.Code)
		}
	}
	resp := serveFrom(r, "192.0.2.10:443", "198.51.100.1", http.MethodPost, "/api/ot/soap_notes", `{"shorthand":"fatigue"}`)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat from same forwarded client expected 429, got %d", resp.Code)
	}
}
