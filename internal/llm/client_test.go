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
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = endpoint + "/v1/"
	cfg.APIKey = "test-key"
	return cfg
}

type chatBody struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func TestOpenAIClient_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body chatBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "system prompt", body.Messages[0].Content)
		assert.Equal(t, "user prompt", body.Messages[1].Content)
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)

		writeCompletion(w, body.Model, `{"questions":[]}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(testConfig(srv.URL), NoopObserver{})
	require.NoError(t, err)
	resp, err := client.Complete(context.Background(), Request{
		Task:         TaskClarify,
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		JSON:         true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"questions":[]}`, resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestOpenAIClient_Complete_ModelAndTemperatureOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body.Model)
		assert.InDelta(t, 0.9, body.Temperature, 1e-9)
		assert.Nil(t, body.ResponseFormat)
		writeCompletion(w, body.Model, "done")
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(testConfig(srv.URL), NoopObserver{})
	require.NoError(t, err)
	temp := 0.9
	resp, err := client.Complete(context.Background(), Request{
		Task:        TaskFinal,
		Model:       "gpt-4o",
		UserPrompt:  "x",
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", resp.Model)
}

func TestOpenAIClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskClarify: {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 50},
	}

	client, err := NewOpenAIClient(cfg, NoopObserver{})
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskClarify, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOpenAIClient_Complete_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0

	client, err := NewOpenAIClient(cfg, NoopObserver{})
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskClarify, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestOpenAIClient_Complete_RetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		writeCompletion(w, "gpt-4o-mini", "ok")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	client, err := NewOpenAIClient(cfg, NoopObserver{})
	require.NoError(t, err)
	resp, err := client.Complete(context.Background(), Request{Task: TaskFinal, UserPrompt: "test"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestOpenAIClient_Complete_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2

	client, err := NewOpenAIClient(cfg, NoopObserver{})
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskEdit, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOpenAIClient_Complete_ProviderRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0

	client, err := NewOpenAIClient(cfg, NoopObserver{})
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskFinal, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrProviderRateLimited)
}

func TestOpenAIClient_EmptyChoicesIsInvalidOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(testConfig(srv.URL), NoopObserver{})
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskFinal, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = ""
	_, err := NewOpenAIClient(cfg, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIClient_ObserverCalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "gpt-4o-mini", "ok")
	}))
	defer srv.Close()

	var captured CallEvent
	obs := &captureObserver{fn: func(e CallEvent) { captured = e }}

	client, err := NewOpenAIClient(testConfig(srv.URL), obs)
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Task: TaskEdit, UserPrompt: "test"})

	require.NoError(t, err)
	assert.Equal(t, TaskEdit, captured.Task)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.True(t, captured.Success)
	assert.Equal(t, 1, captured.Attempts)
}

func TestOpenAIClient_ObserverTimeoutErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskFinal: {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 50},
	}

	var captured CallEvent
	obs := &captureObserver{fn: func(e CallEvent) { captured = e }}
	client, err := NewOpenAIClient(cfg, obs)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Task: TaskFinal, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, captured.Success)
	assert.Equal(t, "TIMEOUT", captured.ErrorCode)
}

type captureObserver struct {
	fn func(CallEvent)
}

func (o *captureObserver) OnCallComplete(e CallEvent) { o.fn(e) }
