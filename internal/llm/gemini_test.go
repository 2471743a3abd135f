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
	"go.uber.org/zap"
)

func TestGeminiGenerate_ReturnsFirstCandidateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "structure this", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "{\"metrics\": []}"}]}}]}`))
	}))
	defer server.Close()

	client := NewGemini("test-key", "", server.URL, time.Second, zap.NewNop())
	text, err := client.Generate(context.Background(), "structure this")
	require.NoError(t, err)
	assert.Equal(t, `{"metrics": []}`, text)
}

func TestGeminiGenerate_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGemini("test-key", "", server.URL, time.Second, zap.NewNop())
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiGenerate_ServiceErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid model"}}`))
	}))
	defer server.Close()

	client := NewGemini("test-key", "", server.URL, time.Second, zap.NewNop())
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestGeminiGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewGemini("test-key", "", server.URL, time.Second, zap.NewNop())
	_, err := client.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestGeminiGenerate_TransportError(t *testing.T) {
	client := NewGemini("test-key", "", "http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	_, err := client.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
