package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"focustrack/internal/domain"
	"focustrack/internal/handler"
)

// stubClassifier approves everything.
type stubClassifier struct{ calls int }

func (s *stubClassifier) Verify(ctx context.Context, description, imageBase64 string) (*domain.Verdict, error) {
	s.calls++
	return &domain.Verdict{
		Authentic: true, Matches: true, Confidence: 0.9, Verified: true, Reasoning: "checks out",
	}, nil
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestIntegration_SessionLifecycle(t *testing.T) {
	classifier := &stubClassifier{}
	svcs := newTestServices(t, classifier)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svcs.auth, svcs.activities, svcs.reconcile, svcs.verify)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := &apiClient{t: t, base: srv.URL, http: srv.Client()}

	// Register and log in; the login body carries the bearer token.
	status := client.do("POST", "/api/auth/register", map[string]string{
		"email": "flow@example.com", "displayName": "Flow",
		"password": "password123", "confirmPassword": "password123",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}

	var login struct {
		Token string `json:"token"`
	}
	status = client.do("POST", "/api/auth/login", map[string]string{
		"email": "flow@example.com", "password": "password123",
	}, &login)
	if status != http.StatusOK || login.Token == "" {
		t.Fatalf("login status = %d, token = %q", status, login.Token)
	}
	client.token = login.Token

	// Create an activity: 10 minute plan, 2 minute breaks, budget 1.
	var created struct {
		Activity handler.ActivityDTO `json:"activity"`
	}
	status = client.do("POST", "/api/activities", map[string]any{
		"title": "Deep work", "totalTime": 10, "breakMinutes": 2, "breakCount": 1,
	}, &created)
	if status != http.StatusCreated || created.Activity.ID == 0 {
		t.Fatalf("create activity status = %d, %+v", status, created)
	}
	actPath := fmt.Sprintf("/api/activities/%d", created.Activity.ID)

	// Start opens a row that stays open.
	var started struct {
		Session handler.HistoryDTO `json:"session"`
	}
	status = client.do("POST", actPath+"/start", map[string]any{
		"description": "morning block", "breakCount": 1,
	}, &started)
	if status != http.StatusCreated || started.Session.EndedAt != nil {
		t.Fatalf("start status = %d, session = %+v", status, started.Session)
	}

	// Complete with one 2 minute break; retry with the same key must not
	// double-record.
	completeBody := map[string]any{
		"focusSeconds": 600,
		"breakLog": []map[string]any{
			{"started_at": "2025-06-01T09:03:00Z", "duration_seconds": 120, "focus_before_break": 420, "kind": "completed"},
		},
		"idempotencyKey": "flow-key-1",
	}
	var completed struct {
		Session handler.HistoryDTO `json:"session"`
	}
	for i := 0; i < 2; i++ {
		status = client.do("POST", actPath+"/complete-session", completeBody, &completed)
		if status != http.StatusOK {
			t.Fatalf("complete attempt %d status = %d", i, status)
		}
	}
	if completed.Session.FocusSeconds != 600 || completed.Session.TotalBreakTime != 120 {
		t.Fatalf("completed session = %+v", completed.Session)
	}
	if completed.Session.DurationMin != 12 {
		t.Fatalf("duration = %d, want 12", completed.Session.DurationMin)
	}
	// Completing lands on the row start opened; the session is one row.
	if completed.Session.ID != started.Session.ID {
		t.Fatalf("completed row %d, want the opened row %d", completed.Session.ID, started.Session.ID)
	}

	var fetched struct {
		Activity handler.ActivityDTO `json:"activity"`
	}
	client.do("GET", actPath, nil, &fetched)
	if fetched.Activity.StreakCount != 1 {
		t.Fatalf("streak after idempotent retry = %d, want 1", fetched.Activity.StreakCount)
	}
	if fetched.Activity.BreakTime != 120 {
		t.Fatalf("break time = %d, want 120", fetched.Activity.BreakTime)
	}
	if fetched.Activity.TotalTime != 10 {
		t.Fatalf("planned total changed: %d", fetched.Activity.TotalTime)
	}

	// Verify the recorded session; the verdict lands on the named row and
	// leaves the streak alone.
	var verified struct {
		Verification handler.VerificationDTO `json:"verification"`
	}
	status = client.do("POST", actPath+"/verify", map[string]any{
		"historyId": completed.Session.ID, "description": "finished the morning block",
	}, &verified)
	if status != http.StatusOK || !verified.Verification.Verified {
		t.Fatalf("verify status = %d, %+v", status, verified)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", classifier.calls)
	}

	client.do("GET", actPath, nil, &fetched)
	if fetched.Activity.StreakCount != 1 {
		t.Fatalf("verification changed the streak: %d", fetched.Activity.StreakCount)
	}

	// A second session that never reconciles is closed by the degraded end
	// path, which leaves the counters alone.
	var abandoned struct {
		Session handler.HistoryDTO `json:"session"`
	}
	status = client.do("POST", actPath+"/start", map[string]any{
		"description": "evening block",
	}, &abandoned)
	if status != http.StatusCreated {
		t.Fatalf("second start status = %d", status)
	}

	var ended struct {
		Session handler.HistoryDTO `json:"session"`
	}
	status = client.do("POST", actPath+"/end-session", nil, &ended)
	if status != http.StatusOK || ended.Session.EndedAt == nil {
		t.Fatalf("end status = %d, session = %+v", status, ended.Session)
	}
	if ended.Session.ID != abandoned.Session.ID {
		t.Fatalf("ended row %d, want the abandoned row %d", ended.Session.ID, abandoned.Session.ID)
	}
	client.do("GET", actPath, nil, &fetched)
	if fetched.Activity.StreakCount != 1 {
		t.Fatalf("degraded end touched the streak: %d", fetched.Activity.StreakCount)
	}

	// History lists both rows, newest first.
	var history struct {
		History []handler.HistoryDTO `json:"history"`
	}
	status = client.do("GET", actPath+"/history", nil, &history)
	if status != http.StatusOK || len(history.History) != 2 {
		t.Fatalf("history status = %d, rows = %d", status, len(history.History))
	}
}

func TestIntegration_OwnershipIsolation(t *testing.T) {
	svcs := newTestServices(t, &stubClassifier{})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svcs.auth, svcs.activities, svcs.reconcile, svcs.verify)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	owner := &apiClient{t: t, base: srv.URL, http: srv.Client()}
	owner.do("POST", "/api/auth/register", map[string]string{
		"email": "owner@example.com", "displayName": "Owner",
		"password": "password123", "confirmPassword": "password123",
	}, nil)
	var login struct {
		Token string `json:"token"`
	}
	owner.do("POST", "/api/auth/login", map[string]string{
		"email": "owner@example.com", "password": "password123",
	}, &login)
	owner.token = login.Token

	var created struct {
		Activity handler.ActivityDTO `json:"activity"`
	}
	owner.do("POST", "/api/activities", map[string]any{
		"title": "Private", "totalTime": 10,
	}, &created)

	intruder := &apiClient{t: t, base: srv.URL, http: srv.Client()}
	intruder.do("POST", "/api/auth/register", map[string]string{
		"email": "intruder@example.com", "displayName": "Intruder",
		"password": "password123", "confirmPassword": "password123",
	}, nil)
	intruder.do("POST", "/api/auth/login", map[string]string{
		"email": "intruder@example.com", "password": "password123",
	}, &login)
	intruder.token = login.Token

	actPath := fmt.Sprintf("/api/activities/%d", created.Activity.ID)
	if status := intruder.do("GET", actPath, nil, nil); status != http.StatusForbidden {
		t.Fatalf("intruder GET status = %d, want 403", status)
	}
	if status := intruder.do("POST", actPath+"/complete-session", map[string]any{
		"focusSeconds": 60,
	}, nil); status != http.StatusForbidden {
		t.Fatalf("intruder complete status = %d, want 403", status)
	}
}
