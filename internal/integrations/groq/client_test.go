package groq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"basebot/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.groq.com/openai/v1", "https://api.groq.com/openai/v1/chat/completions"},
		{"https://api.groq.com/openai/v1/", "https://api.groq.com/openai/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.groq.com/openai/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("gsk-test")
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)
	require.NotNil(t, c.httpClient)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)

	c, err = NewClient("gsk-test", WithBaseURL(" "))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestNewClient_NilHTTPClientKeepsDefault(t *testing.T) {
	c, err := NewClient("gsk-test", WithHTTPClient(nil))
	require.NoError(t, err)
	require.NotNil(t, c.httpClient)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)

	custom := &http.Client{Timeout: time.Second}
	c, err = NewClient("gsk-test", WithHTTPClient(custom))
	require.NoError(t, err)
	require.Same(t, custom, c.httpClient)
}

// ---------------------------------------------------------------------------
// Client.Chat
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		"gsk-test",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func userRequest() domain.CompletionRequest {
	return domain.CompletionRequest{
		Model:       "llama-mock",
		Messages:    []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   150,
	}
}

func TestClient_Chat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Equal(t, "llama-mock", body["model"])
		require.InDelta(t, 0.7, body["temperature"], 1e-9)
		require.InDelta(t, 150, body["max_tokens"], 1e-9)
		require.Len(t, body["messages"], 1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1670000000,
			"model": "llama-mock",
			"choices": [{
				"index": 0,
				"message": { "role": "assistant", "content": "gm from mock 🚀" },
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Chat(context.Background(), userRequest())
	require.NoError(t, err)
	require.Equal(t, "gm from mock 🚀", resp)
}

func TestClient_Chat_OmitsZeroTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "temperature")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	req := userRequest()
	req.Temperature = 0
	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), req)
	require.NoError(t, err)
}

func TestClient_Chat_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		c := newTestClient(t, srv)
		_, err := c.Chat(context.Background(), userRequest())
		srv.Close()

		require.Error(t, err)
		require.Contains(t, err.Error(), "unexpected status")
		var statusErr *HTTPStatusError
		require.True(t, errors.As(err, &statusErr), "status=%d", status)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, statusErr.Body, "nope")
	}
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), userRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), userRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Chat(context.Background(), userRequest())
	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestClient_Chat_NetworkError(t *testing.T) {
	c, err := NewClient("gsk-test", WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(nil))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), userRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Chat_ValidatesRequest(t *testing.T) {
	c, err := NewClient("gsk-test")
	require.NoError(t, err)

	req := userRequest()
	req.Model = ""
	_, err = c.Chat(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")

	req = userRequest()
	req.Messages = nil
	_, err = c.Chat(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "messages")
}
