package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"basebot/internal/domain"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4096
	maxBody        = 1 << 20
)

// chatRequest is the request shape of the OpenAI-compatible Chat Completions
// endpoint served by Groq.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int                `json:"index"`
		Message      domain.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
}

// HTTPStatusError captures any upstream response other than 200 OK.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("groq: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Groq chat completions API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default client; nil keeps the default.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("groq: api key must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Chat sends one completion request and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, in domain.CompletionRequest) (string, error) {
	if strings.TrimSpace(in.Model) == "" {
		return "", errors.New("groq: model must not be empty")
	}
	if len(in.Messages) == 0 {
		return "", errors.New("groq: messages must not be empty")
	}

	httpReq, err := c.newChatRequest(ctx, in)
	if err != nil {
		return "", err
	}
	raw, err := c.doJSONRequest(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq: request failed: %w", err)
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("groq: decode response: %w", decErr)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("groq: no choices in response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) newChatRequest(ctx context.Context, in domain.CompletionRequest) (*http.Request, error) {
	payload := chatRequest{
		Model:     in.Model,
		Messages:  in.Messages,
		MaxTokens: in.MaxTokens,
	}
	if in.Temperature > 0 {
		temp := in.Temperature
		payload.Temperature = &temp
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("groq: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        req.URL.String(),
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
