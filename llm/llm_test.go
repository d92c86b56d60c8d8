package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: fake Messages API that replies with text and records the
// request body
func newAnthropicServer(t *testing.T, status int, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if got != nil {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, got))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprintf(w, `{"type":"error","error":{"type":"api_error","message":%q}}`, reply)
			return
		}
		payload, _ := json.Marshal(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"content":       []map[string]any{{"type": "text", "text": reply}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestAnthropic_Complete verifies prompt, system text and reply handling
func TestAnthropic_Complete(t *testing.T) {
	var body map[string]any
	server := newAnthropicServer(t, http.StatusOK, "hello there", &body)

	a := NewAnthropic("test-key", "", server.URL)
	text, err := a.Complete(context.Background(), Request{System: "be brief", Prompt: "say hi", MaxTokens: 64})

	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, DefaultAnthropicModel, body["model"])
	assert.EqualValues(t, 64, body["max_tokens"])
	assert.Contains(t, fmt.Sprint(body["system"]), "be brief")
	assert.Contains(t, fmt.Sprint(body["messages"]), "say hi")
}

// TestAnthropic_MissingKey verifies no request is made without a key
func TestAnthropic_MissingKey(t *testing.T) {
	_, err := NewAnthropic("", "", "http://127.0.0.1:1").Complete(context.Background(), Request{Prompt: "x", MaxTokens: 1})

	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, err.(*Error).Retryable)
}

// TestAnthropic_ErrorClassification verifies rate limit and auth failures
func TestAnthropic_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		message   string
		retryable bool
	}{
		{http.StatusTooManyRequests, "Rate limited. Please wait a moment and try again.", true},
		{http.StatusUnauthorized, "Invalid API key. Please check your Anthropic API key.", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			server := newAnthropicServer(t, tt.status, "nope", nil)

			_, err := NewAnthropic("test-key", "", server.URL).Complete(context.Background(), Request{Prompt: "x", MaxTokens: 1})

			var llmErr *Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.message, llmErr.Message)
			assert.Equal(t, tt.retryable, llmErr.Retryable)
		})
	}
}

// TestGemini_Complete verifies the OpenAI-compatible request shape
func TestGemini_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gem-key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gemini-2.0-flash",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"emoji\":\"⚡\"}"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	text, err := NewGemini("gem-key", "", server.URL).Complete(context.Background(), Request{Prompt: "summarize", MaxTokens: 10})

	require.NoError(t, err)
	assert.Equal(t, `{"emoji":"⚡"}`, text)
	assert.Equal(t, DefaultGeminiModel, body["model"])
}

// TestGemini_RateLimited verifies 429 responses are retryable
func TestGemini_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota","type":"rate_limit","code":"429"}}`)
	}))
	defer server.Close()

	_, err := NewGemini("gem-key", "", server.URL).Complete(context.Background(), Request{Prompt: "x"})

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.True(t, llmErr.Retryable)
}

// TestScanArray verifies the outermost bracket span is returned
func TestScanArray(t *testing.T) {
	raw, ok := ScanArray("Here you go:\n[{\"id\":\"a\"},{\"id\":\"b\"}]\nThanks")
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"},{"id":"b"}]`, raw)

	_, ok = ScanArray("no json here")
	assert.False(t, ok)

	_, ok = ScanArray("] backwards [")
	assert.False(t, ok)
}

// TestDecodeObject verifies embedded objects decode and failures are
// retryable
func TestDecodeObject(t *testing.T) {
	var out struct {
		Caption string `json:"caption"`
	}
	require.NoError(t, DecodeObject("```json\n{\"caption\":\"Bills going up\"}\n```", &out))
	assert.Equal(t, "Bills going up", out.Caption)

	err := DecodeObject("{not json}", &out)
	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.True(t, llmErr.Retryable)
}
