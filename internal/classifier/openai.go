// Package classifier implements the session verification boundary against
// the OpenAI chat completions API.
package classifier

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
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxRetries     = 3
	initialDelay   = 1 * time.Second
)

const systemPrompt = `You are a strict but fair verification assistant for a focus-session tracker.
The user finished a timed focus session and describes what they worked on, optionally with a photo of the result.
Judge whether the claim is authentic and whether any provided image matches the description.
Respond with JSON only, in this exact shape:
{"authentic": bool, "matches_description": bool, "confidence": number between 0 and 1, "verified": bool, "reasoning": string}`

// OpenAIClassifier calls the chat completions endpoint and parses the JSON
// verdict out of the reply.
type OpenAIClassifier struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Option configures the classifier.
type Option func(*OpenAIClassifier)

// WithBaseURL overrides the API base URL, for proxies and tests.
func WithBaseURL(url string) Option {
	return func(c *OpenAIClassifier) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *OpenAIClassifier) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OpenAIClassifier) {
		if client != nil {
			c.client = client
		}
	}
}

// NewOpenAIClassifier creates a classifier backed by the OpenAI API.
func NewOpenAIClassifier(apiKey string, opts ...Option) *OpenAIClassifier {
	c := &OpenAIClassifier{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type imageRef struct {
	URL string `json:"url"`
}

type chatContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Verify implements domain.Classifier.
func (c *OpenAIClassifier) Verify(ctx context.Context, description, imageBase64 string) (*domain.Verdict, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}

	userContent := []chatContent{
		{Type: "text", Text: "Session description: " + description},
	}
	if imageBase64 != "" {
		url := imageBase64
		if !strings.HasPrefix(url, "data:") {
			url = "data:image/jpeg;base64," + url
		}
		userContent = append(userContent, chatContent{
			Type:     "image_url",
			ImageURL: &imageRef{URL: url},
		})
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	verdict := &domain.Verdict{}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), verdict); err != nil {
		return nil, fmt.Errorf("decode verdict %q: %w", content, err)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return nil, fmt.Errorf("verdict confidence %v out of range", verdict.Confidence)
	}
	return verdict, nil
}

// post sends the request with retries on rate limits and server errors.
func (c *OpenAIClassifier) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := initialDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		return respBody, nil
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

var _ domain.Classifier = (*OpenAIClassifier)(nil)
