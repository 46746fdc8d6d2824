package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.Equal(t, []string{"</s>"}, cfg.Generation.Stop)
	assert.Equal(t, 2048, cfg.Model.ContextSize)
	assert.Equal(t, 20, cfg.Model.GPULayers)
	assert.GreaterOrEqual(t, cfg.Model.Threads, 1)
}

func TestResolve_FileOverlaysDefaults(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "model:\n  gpu_layers: 0\n  path: /m/x.gguf\nchat:\n  assistant_label: Dr\n")
	cfg, err := Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, "/m/x.gguf", cfg.Model.Path)
	assert.Equal(t, "Dr", cfg.Chat.AssistantLabel)
	assert.Zero(t, cfg.Model.GPULayers, "explicit zero should be kept")
	// untouched keys keep defaults
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.Equal(t, "User", cfg.Chat.UserLabel)
}

func TestResolve_EnvOverrides(t *testing.T) {
	t.Setenv("MEDCHAT_ADDR", ":5555")
	t.Setenv("MEDCHAT_MODEL_PATH", "/env/model.gguf")
	t.Setenv("MEDCHAT_BACKEND", "server")
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ":5555", cfg.Addr)
	assert.Equal(t, "/env/model.gguf", cfg.Model.Path)
	assert.Equal(t, "server", cfg.Model.Backend)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"cache":       func(c *Config) { c.Model.Cache = "weird" },
		"backend":     func(c *Config) { c.Model.Backend = "gpu-farm" },
		"format":      func(c *Config) { c.Model.ChatFormat = "alpaca" },
		"temp no url": func(c *Config) { c.Model.Cache = "temp"; c.Model.URL = "" },
		"no path":     func(c *Config) { c.Model.Path = " " },
		"max tokens":  func(c *Config) { c.Generation.MaxTokens = 0 },
		"system":      func(c *Config) { c.Chat.SystemPrompt = "" },
	}
	for name, mut := range cases {
		cfg := Default()
		mut(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
