package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateText_SendsSystemPrompt(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "hello there", PromptEvalCount: 3, EvalCount: 2})
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "", time.Second)
	resp, err := c.GenerateText(context.Background(), "be kind", "hi")
	require.NoError(t, err)

	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, 5, resp.TotalTokens)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, "be kind", got.System)
	assert.False(t, got.Stream)
}

func TestOllamaGenerateText_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"empty", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"response":"   "}`)) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`not json`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewOllama(srv.URL, "m", time.Second).GenerateText(context.Background(), "", "hi")
			require.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestOllamaGenerateText_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllama(url, "m", time.Second).GenerateText(context.Background(), "", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(""))
	assert.True(t, IsUnavailable("Local LLM is unavailable; falling back."))
	assert.False(t, IsUnavailable("a real answer"))
}
