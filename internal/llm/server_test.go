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

func newTestServer(t *testing.T, complete http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/completions", complete)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestServerModel_Complete(t *testing.T) {
	var got completionRequest
	var auth string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":" Rest and fluids.","finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`))
	})
	ld := NewServerLoader(ServerConfig{BaseURL: ts.URL + "/", APIKey: "k", RequestTimeout: 2 * time.Second})
	m, err := ld.Load(context.Background(), "BioMistral-7B.Q4_K_M.gguf")
	require.NoError(t, err)
	defer m.Close()

	res, err := m.Complete(context.Background(), "User: hi\n\nDoctor:", Params{MaxTokens: 64, Stop: []string{"</s>"}})
	require.NoError(t, err)
	assert.Equal(t, " Rest and fluids.", res.Text)
	assert.Equal(t, "stop", res.FinishReason)
	assert.Equal(t, 16, res.Usage.TotalTokens)

	assert.Equal(t, "Bearer k", auth)
	assert.False(t, got.Stream)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Equal(t, []string{"</s>"}, got.Stop)
}

func TestServerModel_HTTPError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	})
	m, err := NewServerLoader(ServerConfig{BaseURL: ts.URL}).Load(context.Background(), "m")
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), "hello", Params{MaxTokens: 8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestServerModel_ContextCancel(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	m, err := NewServerLoader(ServerConfig{BaseURL: ts.URL}).Load(context.Background(), "m")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Complete(ctx, "hello", Params{})
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestServerLoader_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err := NewServerLoader(ServerConfig{BaseURL: url, ConnectTimeout: 200 * time.Millisecond}).Load(context.Background(), "m")
	assert.True(t, IsDependencyUnavailable(err), "expected dependency unavailable, got %v", err)
}

func TestParseCompletion_NativeShape(t *testing.T) {
	res, err := parseCompletion([]byte(`{"content":"hello","stopped_limit":true}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "length", res.FinishReason)

	_, err = parseCompletion([]byte(`{"object":"x"}`))
	assert.Error(t, err, "body without choices")
	_, err = parseCompletion([]byte(`not json`))
	assert.Error(t, err, "invalid json")
}
