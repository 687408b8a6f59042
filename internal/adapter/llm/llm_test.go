package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatCompletion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1722300000,
		"model":   DefaultModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestOpenAI(t *testing.T, url string, retries int) *OpenAI {
	t.Helper()
	o, err := NewOpenAI(context.Background(), Config{
		APIKey:     "test-key",
		BaseURL:    url,
		RPM:        60000,
		MaxRetries: retries,
	}, discardLogger())
	require.NoError(t, err)
	o.initial = time.Millisecond
	return o
}

func TestOpenAI_Summarize(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion("多云转雷雨，27~35℃，备雨具"))
	}))
	defer srv.Close()

	o := newTestOpenAI(t, srv.URL, 0)
	text, err := o.Summarize(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "多云转雷雨，27~35℃，备雨具", text)

	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "user prompt", got.Messages[1].Content)
}

func TestOpenAI_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"message":"too many requests","type":"rate_limit"}}`)
			return
		}
		_, _ = io.WriteString(w, chatCompletion("ok"))
	}))
	defer srv.Close()

	o := newTestOpenAI(t, srv.URL, 2)
	text, err := o.Summarize(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAI_DoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"auth"}}`)
	}))
	defer srv.Close()

	o := newTestOpenAI(t, srv.URL, 3)
	_, err := o.Summarize(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai generate")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_EmptyReplyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion(""))
	}))
	defer srv.Close()

	_, err := newTestOpenAI(t, srv.URL, 0).Summarize(context.Background(), "s", "p")
	require.ErrorIs(t, err, errEmptyResponse)
}

func TestOpenAI_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	o := newTestOpenAI(t, srv.URL, 0)
	o.timeout = 50 * time.Millisecond
	_, err := o.Summarize(context.Background(), "s", "p")
	require.Error(t, err)
}

func TestGemini_Summarize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"晴，26~33℃，防晒"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), Config{
		GeminiAPIKey:  "test-key",
		GeminiBaseURL: srv.URL,
		RPM:           60000,
	}, discardLogger())
	require.NoError(t, err)

	text, err := g.Summarize(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "晴，26~33℃，防晒", text)
	assert.Contains(t, body, "systemInstruction")
	assert.Contains(t, body, "contents")
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Provider: ProviderNone}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(ctx, Config{Provider: ProviderOpenAI, APIKey: "k"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, s)

	_, err = New(ctx, Config{Provider: ProviderOpenAI}, discardLogger())
	require.Error(t, err)

	_, err = New(ctx, Config{Provider: ProviderGemini}, discardLogger())
	require.Error(t, err)

	_, err = New(ctx, Config{Provider: "claude"}, discardLogger())
	require.ErrorContains(t, err, "unknown summarizer provider")
}
