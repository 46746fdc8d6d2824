package llm

import (
	"context"
	"runtime"
)

// Model is a loaded inference handle. Complete blocks until the backend
// returns text or ctx is done.
type Model interface {
	Complete(ctx context.Context, prompt string, params Params) (Result, error)
	// Close releases the weights or connection behind the handle.
	Close() error
}

// Loader turns a weights file on disk into a Model.
type Loader interface {
	Load(ctx context.Context, modelPath string) (Model, error)
}

// LoaderConfig holds the fixed load-time parameters.
type LoaderConfig struct {
	ContextSize int
	Threads     int
	GPULayers   int
}

// withDefaults fills unset loader fields.
func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.ContextSize <= 0 {
		c.ContextSize = 2048
	}
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.GPULayers < 0 {
		c.GPULayers = 0
	}
	return c
}

// Params captures generation parameters passed to the backend.
// Zero values mean backend default, except MaxTokens which is clamped to 1.
type Params struct {
	MaxTokens     int
	Stop          []string
	Temperature   float32
	TopP          float32
	TopK          int
	Seed          int
	RepeatPenalty float32
}

// Result is a finished completion.
type Result struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage contains token accounting when the backend reports it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelFunc adapts a plain function to Model. Close is a no-op.
type ModelFunc func(ctx context.Context, prompt string, params Params) (Result, error)

func (f ModelFunc) Complete(ctx context.Context, prompt string, params Params) (Result, error) {
	return f(ctx, prompt, params)
}

func (f ModelFunc) Close() error { return nil }
