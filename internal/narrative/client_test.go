package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

func testResult() scoring.Result {
	return scoring.Result{TypeCode: "ENTP", Profile: scoring.Profile{Label: "The Debater", Strengths: []string{"Quick thinking"}}}
}

func TestAnthropicClient_ParsesFencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.Contains(req.Messages[0].Content, "type: ENTP (The Debater)") {
			t.Errorf("prompt missing type line: %q", req.Messages[0].Content)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"` + "```json\\n" + `{\"story\":[\"s1\",\" \"],\"coach\":[\"c1\"]}` + "\\n```" + `"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "m").(*anthropicClient)
	c.endpoint = srv.URL

	n, err := c.Narrate(context.Background(), testResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.Story) != 1 || n.Story[0] != "s1" || n.Coach[0] != "c1" {
		t.Errorf("got %+v", n)
	}
	if n.Source != SourceAnthropic {
		t.Errorf("source = %q", n.Source)
	}
}

func TestAnthropicClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "m").(*anthropicClient)
	c.endpoint = srv.URL

	_, err := c.Narrate(context.Background(), testResult())
	if err == nil || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestDeepSeekClient_RequestsJSONMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", req.ResponseFormat)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"story\":[\"a\"],\"coach\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := NewDeepSeekClient("k", "deepseek-chat").(*deepseekClient)
	c.endpoint = srv.URL

	n, err := c.Narrate(context.Background(), testResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Story[0] != "a" || len(n.Coach) != 0 || n.Source != SourceDeepSeek {
		t.Errorf("got %+v", n)
	}
}

func TestParseNarrative_EmptyIsError(t *testing.T) {
	if _, err := parseNarrative(`{"story":[],"coach":[" "]}`, SourceDeepSeek); err == nil {
		t.Fatal("expected error for empty narrative")
	}
	if _, err := parseNarrative(`not json`, SourceDeepSeek); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
