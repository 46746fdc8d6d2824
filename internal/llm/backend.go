package llm

import "fmt"

// Backend names accepted by NewLoader.
const (
	BackendLlama  = "llama"
	BackendServer = "server"
)

// LlamaBuilt reports whether the in-process backend was compiled in.
func LlamaBuilt() bool { return llamaBuilt }

// NewLoader selects a Loader by backend name.
func NewLoader(backend string, lc LoaderConfig, sc ServerConfig) (Loader, error) {
	switch backend {
	case "", BackendLlama:
		return NewLlamaLoader(lc), nil
	case BackendServer:
		return NewServerLoader(sc), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
