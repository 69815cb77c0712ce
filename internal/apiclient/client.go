// Package apiclient is the HTTP client the terminal timer uses to talk to
// a focustrack server. It implements engine.Boundary.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focustrack/internal/domain"
	"focustrack/internal/engine"
)

// Client talks to the focustrack HTTP API with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a bearer token obtained outside of Login.
func (c *Client) SetToken(token string) { c.token = token }

type errorResponse struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("login response carried no token")
	}
	c.token = resp.Token
	return nil
}

type activityDTO struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TotalTime    int    `json:"totalTime"`
	BreakMinutes int    `json:"breakMinutes"`
	BreakTime    int    `json:"breakTime"`
	BreakCount   int    `json:"breakCount"`
	StreakCount  int    `json:"streakCount"`
}

type sessionDTO struct {
	ID             int64   `json:"id"`
	FocusSeconds   int     `json:"focusSeconds"`
	TotalBreakTime int     `json:"totalBreakTime"`
	DurationMin    int     `json:"durationMin"`
	EndedAt        *string `json:"endedAt"`
}

// Activity is an activity as the API reports it.
type Activity struct {
	ID           int64
	Title        string
	TotalTime    int
	BreakMinutes int
	BreakTime    int
	BreakCount   int
	StreakCount  int
}

func toActivity(dto activityDTO) Activity {
	return Activity{
		ID:           dto.ID,
		Title:        dto.Title,
		TotalTime:    dto.TotalTime,
		BreakMinutes: dto.BreakMinutes,
		BreakTime:    dto.BreakTime,
		BreakCount:   dto.BreakCount,
		StreakCount:  dto.StreakCount,
	}
}

// ListActivities returns the user's activities.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var resp struct {
		Activities []activityDTO `json:"activities"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/activities", nil, &resp); err != nil {
		return nil, err
	}
	activities := make([]Activity, len(resp.Activities))
	for i, dto := range resp.Activities {
		activities[i] = toActivity(dto)
	}
	return activities, nil
}

// CreateActivity creates a new activity and returns it.
func (c *Client) CreateActivity(ctx context.Context, title string, totalTime, breakMinutes, breakCount int) (*Activity, error) {
	var resp struct {
		Activity activityDTO `json:"activity"`
	}
	err := c.do(ctx, http.MethodPost, "/api/activities", map[string]any{
		"title": title, "totalTime": totalTime, "breakMinutes": breakMinutes, "breakCount": breakCount,
	}, &resp)
	if err != nil {
		return nil, err
	}
	activity := toActivity(resp.Activity)
	return &activity, nil
}

// GetActivity implements engine.Boundary.
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*engine.ActivityInfo, error) {
	var resp struct {
		Activity activityDTO `json:"activity"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/activities/%d", activityID), nil, &resp); err != nil {
		return nil, err
	}
	return &engine.ActivityInfo{
		ID:           resp.Activity.ID,
		Title:        resp.Activity.Title,
		TotalTime:    resp.Activity.TotalTime,
		BreakMinutes: resp.Activity.BreakMinutes,
		BreakCount:   resp.Activity.BreakCount,
	}, nil
}

// StartSession implements engine.Boundary.
func (c *Client) StartSession(ctx context.Context, activityID int64, title, description string, breakCount int) (int64, error) {
	var resp struct {
		Session sessionDTO `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/activities/%d/start", activityID), map[string]any{
		"title": title, "description": description, "breakCount": breakCount,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Session.ID, nil
}

// UpdateBreakCount implements engine.Boundary.
func (c *Client) UpdateBreakCount(ctx context.Context, activityID int64, newCount int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/activities/%d", activityID), map[string]any{
		"breakCount": newCount,
	}, nil)
}

// RecordSession implements engine.Boundary.
func (c *Client) RecordSession(ctx context.Context, req engine.RecordRequest) (*engine.RecordResult, error) {
	var resp struct {
		Session sessionDTO `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/activities/%d/complete-session", req.ActivityID), map[string]any{
		"title":          req.Title,
		"description":    req.Description,
		"focusSeconds":   req.FocusSeconds,
		"breakLog":       req.BreakLog,
		"idempotencyKey": req.IdempotencyKey,
	}, &resp)
	if err != nil {
		return nil, err
	}

	result := &engine.RecordResult{
		HistoryID:      resp.Session.ID,
		FocusSeconds:   resp.Session.FocusSeconds,
		TotalBreakTime: resp.Session.TotalBreakTime,
	}

	// The refreshed streak lives on the activity, not the session row.
	var act struct {
		Activity activityDTO `json:"activity"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/activities/%d", req.ActivityID), nil, &act); err == nil {
		result.StreakCount = act.Activity.StreakCount
	}
	return result, nil
}

// EndOpenSession implements engine.Boundary.
func (c *Client) EndOpenSession(ctx context.Context, activityID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/activities/%d/end-session", activityID), nil, nil)
}

// AttachVerification implements engine.Boundary.
func (c *Client) AttachVerification(ctx context.Context, activityID, historyID int64, description, imageBase64 string) (*domain.Verdict, error) {
	var resp struct {
		Verification struct {
			Verified   bool    `json:"verified"`
			Confidence float64 `json:"confidence"`
			ResultText string  `json:"resultText"`
		} `json:"verification"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/activities/%d/verify", activityID), map[string]any{
		"historyId": historyID, "description": description, "imageBase64": imageBase64,
	}, &resp)
	if err != nil {
		return nil, err
	}

	// The stored result text is the full verdict; fall back to the summary
	// fields when it does not parse.
	verdict := &domain.Verdict{}
	if json.Unmarshal([]byte(resp.Verification.ResultText), verdict) != nil || verdict.Reasoning == "" {
		verdict.Verified = resp.Verification.Verified
		verdict.Confidence = resp.Verification.Confidence
	}
	return verdict, nil
}

var _ engine.Boundary = (*Client)(nil)
