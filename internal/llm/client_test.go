package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitive-radar/backend/pkg/circuitbreaker"
)

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gemini-2.5-flash",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1/",
		Model:       "gemini-2.5-flash",
		MaxTokens:   256,
		Timeout:     5 * time.Second,
		MaxAttempts: attempts,
	})
}

func TestCompleteSendsJSONMode(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"main_point":"x"}`)))
	}, 1)

	resp, err := client.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "Always respond with valid JSON.",
		UserPrompt:   "hello",
		JSON:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"main_point":"x"}`, resp.Content)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	assert.Len(t, got["messages"], 2)
}

func TestCompleteWithoutKey(t *testing.T) {
	client := NewClient(Config{Model: "gemini-2.5-flash"})

	_, err := client.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.True(t, IsFatal(err))
}

func TestCompleteEmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("   ")))
	}, 1)

	_, err := client.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.False(t, IsFatal(err))
}

func TestCompleteUnauthorizedIsFatal(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid","type":"invalid_request_error"}}`))
	}, 3)

	_, err := client.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth errors are not retried")
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("ok")))
	}, 2)

	resp, err := client.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Category string `json:"category"`
	}

	require.NoError(t, DecodeJSON("```json\n{\"category\":\"Pricing\"}\n```", &out))
	assert.Equal(t, "Pricing", out.Category)

	assert.ErrorIs(t, DecodeJSON("", &out), ErrEmptyResponse)
	assert.ErrorIs(t, DecodeJSON("not json", &out), ErrInvalidJSON)
}

func TestTextAcceptsLooseShapes(t *testing.T) {
	var out struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}

	require.NoError(t, DecodeJSON(`{"a":" 40% faster ","b":["3x","$10"],"c":12,"d":null}`, &out))
	assert.Equal(t, Text("40% faster"), out.A)
	assert.Equal(t, Text("3x, $10"), out.B)
	assert.Equal(t, Text("12"), out.C)
	assert.Equal(t, Text(""), out.D)
}

func TestOpenBreakerIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	newClient := func(name string) *Client {
		return NewClient(Config{
			Name:         name,
			APIKey:       "test-key",
			BaseURL:      srv.URL + "/v1/",
			Model:        "gemini-2.5-flash",
			Timeout:      5 * time.Second,
			MaxAttempts:  1,
			BreakerTrips: 2,
		})
	}
	pipelineClient := newClient("pipeline")
	assistantClient := newClient("assistant")
	req := CompletionRequest{UserPrompt: "hello"}

	for i := 0; i < 2; i++ {
		_, err := pipelineClient.Complete(context.Background(), req)
		require.Error(t, err)
		assert.False(t, IsFatal(err))
	}

	_, err := pipelineClient.Complete(context.Background(), req)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(2), calls.Load())

	// a separately named client keeps its own breaker
	_, err = assistantClient.Complete(context.Background(), req)
	assert.NotErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(3), calls.Load())
}
