package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medchat/internal/chat"
	"medchat/internal/config"
	"medchat/internal/httpapi"
	"medchat/internal/llm"
	"medchat/internal/manager"
	"medchat/internal/provision"
)

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func provisionOptions(cfg config.Config, log zerolog.Logger) (provision.Options, error) {
	policy, err := provision.ParseCachePolicy(cfg.Model.Cache)
	if err != nil {
		return provision.Options{}, err
	}
	return provision.Options{
		URL:    cfg.Model.URL,
		Path:   cfg.Model.Path,
		Policy: policy,
		// no overall timeout: the body is several GiB; ctx cancels it
		HTTPClient: &http.Client{Transport: http.DefaultTransport},
		Logger:     log.With().Str("component", "provision").Logger(),
	}, nil
}

func newLoader(cfg config.Config) (llm.Loader, error) {
	return llm.NewLoader(cfg.Model.Backend,
		llm.LoaderConfig{
			ContextSize: cfg.Model.ContextSize,
			Threads:     cfg.Model.Threads,
			GPULayers:   cfg.Model.GPULayers,
		},
		llm.ServerConfig{
			BaseURL:        cfg.Model.ServerURL,
			RequestTimeout: time.Duration(cfg.HTTP.InferTimeoutSeconds) * time.Second,
		},
	)
}

func chatOptions(cfg config.Config, log zerolog.Logger) (chat.Options, error) {
	format, err := chat.ParsePromptFormat(cfg.Model.ChatFormat)
	if err != nil {
		return chat.Options{}, err
	}
	g := cfg.Generation
	return chat.Options{
		Params: llm.Params{
			MaxTokens:     g.MaxTokens,
			Stop:          append([]string(nil), g.Stop...),
			Temperature:   float32(g.Temperature),
			TopP:          float32(g.TopP),
			TopK:          g.TopK,
			Seed:          int(g.Seed),
			RepeatPenalty: float32(g.RepeatPenalty),
		},
		Format:       format,
		Labels:       chat.Labels{User: cfg.Chat.UserLabel, Assistant: cfg.Chat.AssistantLabel},
		InferTimeout: time.Duration(cfg.HTTP.InferTimeoutSeconds) * time.Second,
		Logger:       log.With().Str("component", "chat").Logger(),
	}, nil
}

// newManager builds the model lifecycle manager from config.
func newManager(cfg config.Config, log zerolog.Logger) (*manager.Manager, error) {
	if cfg.Model.Backend == llm.BackendLlama && !llm.LlamaBuilt() {
		log.Warn().Msg("binary built without -tags=llama; set model.backend=server or rebuild")
	}
	popts, err := provisionOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}
	copts, err := chatOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	return manager.New(manager.Config{
		Backend:    cfg.Model.Backend,
		Provision:  popts,
		Loader:     loader,
		QueueDepth: cfg.Chat.QueueDepth,
		MaxWait:    time.Duration(cfg.Chat.MaxWaitSeconds) * time.Second,
		Store: chat.NewStore(cfg.Chat.MaxSessions,
			time.Duration(cfg.Chat.SessionTTLMinutes)*time.Minute, cfg.Chat.SystemPrompt),
		Chat:   copts,
		Logger: log.With().Str("component", "manager").Logger(),
	}), nil
}

// configureHTTP installs package-level HTTP settings from config.
func configureHTTP(cfg config.Config, log zerolog.Logger) {
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetRateLimit(cfg.HTTP.RateLimitPerMinute)
	httpapi.SetCORSOptions(cfg.HTTP.CORSEnabled, cfg.HTTP.CORSAllowedOrigins, cfg.HTTP.CORSAllowedMethods, cfg.HTTP.CORSAllowedHeaders)
	httpapi.SetPageOptions(httpapi.PageOptions{
		Title:          cfg.Chat.Title,
		Tagline:        cfg.Chat.Tagline,
		AssistantLabel: cfg.Chat.AssistantLabel,
	})
}
