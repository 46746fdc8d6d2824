package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644), "write %s", name)
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmodel:\n  path: /tmp/m.gguf\n  gpu_layers: 7\n  backend: server\ngeneration:\n  max_tokens: 64\n  stop: [\"</s>\", \"User:\"]\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/tmp/m.gguf", cfg.Model.Path)
	assert.Equal(t, 7, cfg.Model.GPULayers)
	assert.Equal(t, "server", cfg.Model.Backend)
	assert.Equal(t, 64, cfg.Generation.MaxTokens)
	assert.Equal(t, []string{"</s>", "User:"}, cfg.Generation.Stop)
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","model":{"url":"http://x/m.gguf","cache":"temp","context_size":4096},"chat":{"assistant_label":"Dr"}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "http://x/m.gguf", cfg.Model.URL)
	assert.Equal(t, "temp", cfg.Model.Cache)
	assert.Equal(t, 4096, cfg.Model.ContextSize)
	assert.Equal(t, "Dr", cfg.Chat.AssistantLabel)
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\n[model]\npath=\"/x.gguf\"\nthreads=3\nchat_format=\"chatml\"\n[log]\nlevel=\"debug\"\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, "/x.gguf", cfg.Model.Path)
	assert.Equal(t, 3, cfg.Model.Threads)
	assert.Equal(t, "chatml", cfg.Model.ChatFormat)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
