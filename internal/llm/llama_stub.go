//go:build !llama

package llm

// This file provides a no-CGO stub for the llama backend. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.

import (
	"context"
)

const llamaBuilt = false

type llamaLoader struct {
	cfg LoaderConfig
}

// NewLlamaLoader returns a Loader that refuses to load without the 'llama'
// build tag. Use backend "server" for a CGO-free deployment.
func NewLlamaLoader(cfg LoaderConfig) Loader {
	return &llamaLoader{cfg: cfg.withDefaults()}
}

func (l *llamaLoader) Load(ctx context.Context, modelPath string) (Model, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
