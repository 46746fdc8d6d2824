package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"medchat/internal/chat"
	"medchat/internal/httpapi"
	"medchat/internal/llm"
	"medchat/internal/manager"
	"medchat/internal/provision"
)

const weights = "GGUF\x03\x00\x00\x00fake-weights"

// newModelHost serves a small GGUF file and counts downloads.
func newModelHost(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, weights)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// echoLoader builds models that answer with a fixed reply after delay.
type echoLoader struct {
	reply   string
	delay   time.Duration
	prompts chan string
}

func (l *echoLoader) Load(_ context.Context, _ string) (llm.Model, error) {
	return llm.ModelFunc(func(ctx context.Context, prompt string, _ llm.Params) (llm.Result, error) {
		if l.prompts != nil {
			select {
			case l.prompts <- prompt:
			default:
			}
		}
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
		return llm.Result{Text: "  " + l.reply + "\n", FinishReason: "stop"}, nil
	}), nil
}

type stack struct {
	srv *httptest.Server
	mgr *manager.Manager
}

func newStack(t *testing.T, modelURL string, ld llm.Loader, queueDepth int, maxWait time.Duration) *stack {
	t.Helper()
	httpapi.SetRateLimit(0)
	mgr := manager.New(manager.Config{
		Backend: "llama",
		Provision: provision.Options{
			URL:    modelURL,
			Path:   filepath.Join(t.TempDir(), "models", "bio.gguf"),
			Policy: provision.Persistent,
			Logger: zerolog.Nop(),
		},
		Loader:     ld,
		QueueDepth: queueDepth,
		MaxWait:    maxWait,
		Store:      chat.NewStore(16, time.Minute, "You are a doctor."),
		Chat:       chat.Options{Params: llm.Params{MaxTokens: 16}, Logger: zerolog.Nop()},
		Logger:     zerolog.Nop(),
	})
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return &stack{srv: srv, mgr: mgr}
}

func httpGet(t *testing.T, url, session string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url, session string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
