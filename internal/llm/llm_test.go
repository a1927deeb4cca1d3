package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mecsentinel/internal/config"
	"google.golang.org/genai"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got openAIRequest
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Change the oil.  "}}]}`))
	})

	reply, err := c.Complete(context.Background(), Request{
		System:   "You are a mechanic.",
		Messages: []Message{{Role: RoleUser, Content: "What now?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Change the oil.", reply)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, float32(0.7), got.Temperature)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	reply, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad"}}`))
	})

	_, err := c.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Complete(context.Background(), Request{})
	assert.Error(t, err)
}

func TestOpenAIClient_NoKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{}).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIClient_ContextCancelled(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiRequest(t *testing.T) {
	contents, cfg := geminiRequest(withDefaults(Request{
		System: "You are a mechanic.",
		Messages: []Message{
			{Role: RoleUser, Content: "Hi"},
			{Role: RoleAssistant, Content: "Hello"},
			{Role: RoleUser, Content: "Brakes?"},
		},
	}))

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "Brakes?", contents[2].Parts[0].Text)

	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0.7), *cfg.Temperature)
	assert.Equal(t, int32(1000), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "You are a mechanic.", cfg.SystemInstruction.Parts[0].Text)
}

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Check the pads."}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "g-test", Model: "gemini-test", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "Brakes?"}}})
	require.NoError(t, err)
	assert.Equal(t, "Check the pads.", reply)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, config.LLMConfig{})
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err = New(ctx, config.LLMConfig{Provider: "openai", OpenAIKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = New(ctx, config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(ctx, config.LLMConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(ctx, config.LLMConfig{Provider: "claude"})
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"code fence", "Here you go:\n```json\n{\"a\": {\"b\": 2}}\n```\nThanks", "{\"a\": {\"b\": 2}}", true},
		{"no object", "Sorry, I can't help.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Explanation string `json:"explanation"`
	}
	require.NoError(t, DecodeJSON("sure! {\"explanation\":\"city use\"}", &v))
	assert.Equal(t, "city use", v.Explanation)

	assert.ErrorIs(t, DecodeJSON("nothing here", &v), ErrNoJSON)
	assert.Error(t, DecodeJSON("{not json}", &v))
}
