package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func verdictServer(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want system + user", len(req.Messages))
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": verdict}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestVerifyParsesVerdict(t *testing.T) {
	srv := verdictServer(t, `{"authentic":true,"matches_description":true,"confidence":0.85,"verified":true,"reasoning":"looks legitimate"}`)
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", WithBaseURL(srv.URL))
	verdict, err := c.Verify(context.Background(), "wrote three pages", "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !verdict.Verified || !verdict.Authentic || !verdict.Matches {
		t.Fatalf("verdict = %+v", verdict)
	}
	if verdict.Confidence != 0.85 {
		t.Fatalf("confidence = %v, want 0.85", verdict.Confidence)
	}
	if verdict.Reasoning != "looks legitimate" {
		t.Fatalf("reasoning = %q", verdict.Reasoning)
	}
}

func TestVerifyRejectsMalformedVerdict(t *testing.T) {
	srv := verdictServer(t, `the session looks fine to me`)
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", WithBaseURL(srv.URL))
	if _, err := c.Verify(context.Background(), "wrote three pages", ""); err == nil {
		t.Fatal("expected error for non-JSON verdict")
	}
}

func TestVerifyRejectsOutOfRangeConfidence(t *testing.T) {
	srv := verdictServer(t, `{"verified":true,"confidence":7.5}`)
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", WithBaseURL(srv.URL))
	if _, err := c.Verify(context.Background(), "did things", ""); err == nil {
		t.Fatal("expected error for confidence out of range")
	}
}

func TestVerifyRequiresAPIKeyAndDescription(t *testing.T) {
	c := NewOpenAIClassifier("")
	if _, err := c.Verify(context.Background(), "did things", ""); err == nil {
		t.Fatal("expected error without api key")
	}

	c = NewOpenAIClassifier("test-key")
	if _, err := c.Verify(context.Background(), "", ""); err == nil {
		t.Fatal("expected error without description")
	}
}

func TestVerifyRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"verified":true,"confidence":0.5}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", WithBaseURL(srv.URL))
	verdict, err := c.Verify(context.Background(), "did things", "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !verdict.Verified {
		t.Fatalf("verdict = %+v", verdict)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestVerifyDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad request", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", WithBaseURL(srv.URL))
	if _, err := c.Verify(context.Background(), "did things", ""); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 400)", calls.Load())
	}
}
