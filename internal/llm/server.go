package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ServerConfig points the server backend at a running llama.cpp server.
type ServerConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// serverLoader health-checks a llama.cpp server over HTTP instead of loading weights
// in-process. The server is expected to be started with the same GGUF file.
type serverLoader struct {
	cfg        ServerConfig
	httpClient *http.Client
}

// NewServerLoader constructs a Loader for a llama.cpp server.
func NewServerLoader(cfg ServerConfig) Loader {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every request carries a context deadline instead.
	return &serverLoader{cfg: cfg, httpClient: &http.Client{Transport: tr, Timeout: 0}}
}

func (l *serverLoader) Load(ctx context.Context, modelPath string) (Model, error) {
	if l.cfg.BaseURL == "" {
		return nil, errors.New("llama server url is empty")
	}
	if err := l.checkHealth(ctx); err != nil {
		return nil, ErrDependencyUnavailable("llama server unavailable: " + err.Error())
	}
	return &serverModel{loader: l, modelID: strings.TrimSpace(modelPath)}, nil
}

// checkHealth checks GET /health answers 2xx within the connect timeout.
func (l *serverLoader) checkHealth(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, l.cfg.ConnectTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, l.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	l.authorize(req)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health status %s", resp.Status)
	}
	return nil
}

func (l *serverLoader) authorize(req *http.Request) {
	if l.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)
	}
}

type serverModel struct {
	loader  *serverLoader
	modelID string
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model       string   `json:"model,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float32  `json:"temperature,omitempty"`
	TopP        float32  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        int      `json:"seed,omitempty"`
	Stream      bool     `json:"stream"`
	// not standard OpenAI; llama.cpp accepts it and others ignore it
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

func (m *serverModel) Complete(ctx context.Context, prompt string, params Params) (Result, error) {
	l := m.loader
	if l == nil || l.httpClient == nil {
		return Result{}, errors.New("llama server model not initialized")
	}
	if l.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.RequestTimeout)
		defer cancel()
	}
	body, err := json.Marshal(completionRequest{
		Model:         m.modelID,
		Prompt:        prompt,
		MaxTokens:     max(1, params.MaxTokens),
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		TopK:          params.TopK,
		Stop:          params.Stop,
		Seed:          params.Seed,
		RepeatPenalty: params.RepeatPenalty,
	})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.BaseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	l.authorize(req)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw[:min(len(raw), 4096)]))
		}
		return Result{}, errors.New("llama server http error: " + resp.Status + ": " + msg)
	}
	return parseCompletion(raw)
}

// parseCompletion reads an OpenAI completion body. llama.cpp's native
// /completion shape ("content") is accepted as a fallback.
func parseCompletion(raw []byte) (Result, error) {
	if !gjson.ValidBytes(raw) {
		return Result{}, errors.New("llama server returned invalid json")
	}
	doc := gjson.ParseBytes(raw)
	var res Result
	if choice := doc.Get("choices.0"); choice.Exists() {
		res.Text = choice.Get("text").String()
		if res.Text == "" {
			res.Text = choice.Get("message.content").String()
		}
		res.FinishReason = choice.Get("finish_reason").String()
	} else if content := doc.Get("content"); content.Exists() {
		res.Text = content.String()
		if doc.Get("stopped_limit").Bool() {
			res.FinishReason = "length"
		} else {
			res.FinishReason = "stop"
		}
	} else {
		return Result{}, errors.New("llama server response has no choices")
	}
	res.Usage = Usage{
		PromptTokens:     int(doc.Get("usage.prompt_tokens").Int()),
		CompletionTokens: int(doc.Get("usage.completion_tokens").Int()),
		TotalTokens:      int(doc.Get("usage.total_tokens").Int()),
	}
	return res, nil
}

// Close is a no-op; the server owns the weights.
func (m *serverModel) Close() error { return nil }
