package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/resume-analyzer/internal/config"
)

func makeChatServer(t *testing.T, statusCode int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testChatClient(baseURL, apiKey string, httpClient *http.Client) *ChatCompletionClient {
	return NewChatCompletionClient(ChatCompletionOptions{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       "sonar-pro",
		Temperature: 0.2,
		MaxTokens:   2000,
	}, httpClient)
}

func TestChatComplete_Success(t *testing.T) {
	srv, _ := makeChatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{\"overall_score\":80}"}}]}`)

	got, err := testChatClient(srv.URL, "test-key", srv.Client()).Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"overall_score":80}`, got)
}

func TestChatComplete_SendsRequest(t *testing.T) {
	var (
		gotReq  chatRequest
		gotAuth string
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := testChatClient(srv.URL, "my-secret-key", srv.Client()).Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, "Bearer my-secret-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "sonar-pro", gotReq.Model)
	assert.InDelta(t, 0.2, gotReq.Temperature, 0.0001)
	assert.Equal(t, 2000, gotReq.MaxTokens)
	assert.Equal(t, []chatMessage{
		{Role: "system", Content: "system prompt"},
		{Role: "user", Content: "user prompt"},
	}, gotReq.Messages)
}

func TestChatComplete_MissingCredentialMakesNoCall(t *testing.T) {
	srv, calls := makeChatServer(t, http.StatusOK, `{}`)

	_, err := testChatClient(srv.URL, "", srv.Client()).Complete(context.Background(), "sys", "user")

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestChatComplete_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"rate limited"}`},
		{"server error", http.StatusInternalServerError, `upstream exploded`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := makeChatServer(t, tt.status, tt.body)

			_, err := testChatClient(srv.URL, "test-key", srv.Client()).Complete(context.Background(), "sys", "user")

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, tt.status, upErr.StatusCode)
			assert.Equal(t, tt.body, upErr.Body)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls), "no retry")
		})
	}
}

func TestChatComplete_EmptyContent(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":""}}]}`} {
		srv, _ := makeChatServer(t, http.StatusOK, body)

		_, err := testChatClient(srv.URL, "test-key", srv.Client()).Complete(context.Background(), "sys", "user")
		assert.Error(t, err, body)
	}
}

func TestChatComplete_ContextCancelled(t *testing.T) {
	srv, _ := makeChatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testChatClient(srv.URL, "test-key", srv.Client()).Complete(ctx, "sys", "user")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeminiComplete_MissingCredential(t *testing.T) {
	_, err := NewGeminiClient("", "gemini-2.5-flash", 0.2, 2000).Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestGeminiClient_RetriesFailedInit(t *testing.T) {
	g := NewGeminiClient("test-key", "gemini-2.5-flash", 0.2, 2000)

	calls := 0
	g.newClient = func(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("credentials lookup interrupted")
		}
		return genai.NewClient(ctx, cc)
	}

	_, err := g.genaiClient(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials lookup interrupted")

	first, err := g.genaiClient(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	again, err := g.genaiClient(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 2, calls)
}

func TestNewLLMClient_SelectsProvider(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: config.ProviderGemini}}
	assert.IsType(t, &GeminiClient{}, NewLLMClient(cfg, nil))

	cfg.LLM.Provider = config.ProviderPerplexity
	assert.IsType(t, &ChatCompletionClient{}, NewLLMClient(cfg, nil))
}
