package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Defaults mirror the single-model doctor deployment.
const (
	DefaultAddr      = ":8080"
	DefaultModelURL  = "https://huggingface.co/TheBloke/BioMistral-7B-GGUF/resolve/main/BioMistral-7B.Q4_K_M.gguf"
	DefaultModelPath = "BioMistral-7B-GGUF/BioMistral-7B.Q4_K_M.gguf"

	DefaultSystemPrompt = "You are a professional and friendly **medical doctor**. " +
		"Respond like a doctor giving direct health consultation: you explain symptoms clearly, " +
		"prescribe advice and speak warmly and professionally."
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr       string           `json:"addr" yaml:"addr" toml:"addr"`
	Model      ModelConfig      `json:"model" yaml:"model" toml:"model"`
	Generation GenerationConfig `json:"generation" yaml:"generation" toml:"generation"`
	Chat       ChatConfig       `json:"chat" yaml:"chat" toml:"chat"`
	HTTP       HTTPConfig       `json:"http" yaml:"http" toml:"http"`
	Log        LogConfig        `json:"log" yaml:"log" toml:"log"`
}

// ModelConfig selects where the weights come from and how they are loaded.
type ModelConfig struct {
	URL   string `json:"url" yaml:"url" toml:"url"`
	Path  string `json:"path" yaml:"path" toml:"path"`
	Cache string `json:"cache" yaml:"cache" toml:"cache"` // persistent|temp
	// Backend is "llama" (in-process) or "server" (external llama-server).
	Backend     string `json:"backend" yaml:"backend" toml:"backend"`
	ServerURL   string `json:"server_url" yaml:"server_url" toml:"server_url"`
	ContextSize int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int    `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers   int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	ChatFormat  string `json:"chat_format" yaml:"chat_format" toml:"chat_format"` // plain|mistral|chatml
}

// GenerationConfig holds the fixed per-completion limits.
type GenerationConfig struct {
	MaxTokens     int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Stop          []string `json:"stop" yaml:"stop" toml:"stop"`
	Temperature   float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP          float64  `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK          int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	Seed          int64    `json:"seed" yaml:"seed" toml:"seed"`
	RepeatPenalty float64  `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
}

// ChatConfig controls the conversation surface.
type ChatConfig struct {
	Title             string `json:"title" yaml:"title" toml:"title"`
	Tagline           string `json:"tagline" yaml:"tagline" toml:"tagline"`
	SystemPrompt      string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	UserLabel         string `json:"user_label" yaml:"user_label" toml:"user_label"`
	AssistantLabel    string `json:"assistant_label" yaml:"assistant_label" toml:"assistant_label"`
	MaxSessions       int    `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions"`
	SessionTTLMinutes int    `json:"session_ttl_minutes" yaml:"session_ttl_minutes" toml:"session_ttl_minutes"`
	QueueDepth        int    `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth"`
	MaxWaitSeconds    int    `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
}

// HTTPConfig holds HTTP server knobs.
type HTTPConfig struct {
	MaxBodyBytes        int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	InferTimeoutSeconds int64    `json:"infer_timeout_seconds" yaml:"infer_timeout_seconds" toml:"infer_timeout_seconds"`
	RateLimitPerMinute  int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
	CORSEnabled         bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods  []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders  []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"` // console|json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr: DefaultAddr,
		Model: ModelConfig{
			URL:         DefaultModelURL,
			Path:        DefaultModelPath,
			Cache:       "persistent",
			Backend:     "llama",
			ServerURL:   "http://127.0.0.1:8081",
			ContextSize: 2048,
			Threads:     runtime.NumCPU(),
			GPULayers:   20,
			ChatFormat:  "plain",
		},
		Generation: GenerationConfig{
			MaxTokens: 512,
			Stop:      []string{"</s>"},
		},
		Chat: ChatConfig{
			Title:             "Medical Chatbot (Doctor Mistral)",
			Tagline:           "Consult with the doctor. Get friendly, clear advice on your health queries.",
			SystemPrompt:      DefaultSystemPrompt,
			UserLabel:         "User",
			AssistantLabel:    "Doctor",
			MaxSessions:       1024,
			SessionTTLMinutes: 120,
			QueueDepth:        8,
			MaxWaitSeconds:    300,
		},
		HTTP: HTTPConfig{
			MaxBodyBytes:       1 << 20,
			RateLimitPerMinute: 30,
			CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
			CORSAllowedHeaders: []string{"Content-Type"},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Resolve builds the effective configuration: defaults, then the optional
// file at path, then MEDCHAT_* environment overrides.
func Resolve(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeInto(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Addr, "MEDCHAT_ADDR")
	set(&cfg.Model.URL, "MEDCHAT_MODEL_URL")
	set(&cfg.Model.Path, "MEDCHAT_MODEL_PATH")
	set(&cfg.Model.Backend, "MEDCHAT_BACKEND")
	set(&cfg.Model.ServerURL, "MEDCHAT_SERVER_URL")
	set(&cfg.Log.Level, "MEDCHAT_LOG_LEVEL")
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	switch c.Model.Cache {
	case "persistent", "temp":
	default:
		return fmt.Errorf("unsupported model.cache: %q", c.Model.Cache)
	}
	switch c.Model.Backend {
	case "llama", "server":
	default:
		return fmt.Errorf("unsupported model.backend: %q", c.Model.Backend)
	}
	switch c.Model.ChatFormat {
	case "plain", "mistral", "chatml":
	default:
		return fmt.Errorf("unsupported model.chat_format: %q", c.Model.ChatFormat)
	}
	if strings.TrimSpace(c.Model.URL) == "" && c.Model.Cache == "temp" {
		return fmt.Errorf("model.url is required with cache=temp")
	}
	if c.Model.Cache == "persistent" && strings.TrimSpace(c.Model.Path) == "" {
		return fmt.Errorf("model.path is required with cache=persistent")
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens must be positive")
	}
	if strings.TrimSpace(c.Chat.SystemPrompt) == "" {
		return fmt.Errorf("chat.system_prompt is required")
	}
	return nil
}
