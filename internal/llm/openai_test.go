package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func newTestClient(t *testing.T, url string) *OpenAIClient {
	t.Helper()
	c, err := NewOpenAIClient(OpenAIConfig{
		APIKey:      "sk-test",
		Host:        url + "/",
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
		Timeout:     2 * time.Second,
		Retry:       fastRetry(),
	}, nil)
	require.NoError(t, err)
	return c
}

func completion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id": "chatcmpl-1",
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Messages, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		assert.Equal(t, chatMessage{Role: "system", Content: "classify"}, req.Messages[0])
		assert.Equal(t, chatMessage{Role: "user", Content: "ERROR: boom"}, req.Messages[1])

		json.NewEncoder(w).Encode(completion("SPARK_ERROR"))
	}))
	defer server.Close()

	answer, err := newTestClient(t, server.URL).Chat(context.Background(), "classify", "ERROR: boom")

	require.NoError(t, err)
	assert.Equal(t, "SPARK_ERROR", answer)
}

func TestOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{}, nil)
	assert.Error(t, err)
}

func TestOpenAIClient_Defaults(t *testing.T) {
	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "k"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com", c.cfg.Host)
	assert.Equal(t, "gpt-3.5-turbo", c.cfg.Model)
	assert.Equal(t, DefaultRetryConfig(), c.cfg.Retry)
}

func TestOpenAIClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Chat(context.Background(), "s", "u")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(completion("SUCCESS"))
	}))
	defer server.Close()

	answer, err := newTestClient(t, server.URL).Chat(context.Background(), "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", answer)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Chat(context.Background(), "s", "u")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.Temporary())
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIClient_MalformedResponse(t *testing.T) {
	tests := map[string]string{
		"not json":   "<html>oops</html>",
		"no choices": `{"id":"x","choices":[]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Chat(context.Background(), "s", "u")

			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestOpenAIClient_PerAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL)
	c.cfg.Timeout = 20 * time.Millisecond
	c.cfg.Retry.MaxAttempts = 2

	_, err := c.Chat(context.Background(), "s", "u")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestOpenAIClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(t, server.URL).Chat(ctx, "s", "u")

	assert.ErrorIs(t, err, context.Canceled)
}
