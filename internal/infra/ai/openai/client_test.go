package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   DefaultModel,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
}

func TestClient_Complete(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("A short summary."))
	})

	out, err := c.Complete(context.Background(), []domai.Message{
		{Role: domai.RoleSystem, Content: "sys"},
		{Role: domai.RoleUser, Content: "user"},
	}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)

	assert.Equal(t, DefaultModel, got["model"])
	assert.EqualValues(t, 1024, got["max_completion_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 0.001)
	assert.InDelta(t, 1.0, got["top_p"], 0.001)
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestClient_Complete_ZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("ok"))
	}))
	t.Cleanup(srv.Close)

	zero := float32(0)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Temperature: &zero})
	_, err := c.Complete(context.Background(), []domai.Message{{Role: domai.RoleUser, Content: "hi"}}, 16)
	require.NoError(t, err)

	temp, ok := got["temperature"]
	require.True(t, ok, "temperature must be sent")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestClient_Complete_QuotaExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached","type":"requests"}}`))
	})

	_, err := c.Complete(context.Background(), []domai.Message{{Role: domai.RoleUser, Content: "hi"}}, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestClient_Complete_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Complete(context.Background(), []domai.Message{{Role: domai.RoleUser, Content: "hi"}}, 16)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := c.Complete(context.Background(), []domai.Message{{Role: domai.RoleUser, Content: "hi"}}, 16)
	assert.ErrorIs(t, err, domai.ErrEmptyCompletion)
}

func TestClient_Transcribe(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("PATHOLOGY REPORT"))
	})

	out, err := c.Transcribe(context.Background(), "read it", []byte{0xff, 0xd8}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "PATHOLOGY REPORT", out)

	assert.Equal(t, DefaultVisionModel, got["model"])
	assert.EqualValues(t, 4096, got["max_tokens"])
	raw, err := json.Marshal(got["messages"])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "data:image/png;base64,"))
	assert.True(t, strings.Contains(string(raw), `"image_url"`))
}
