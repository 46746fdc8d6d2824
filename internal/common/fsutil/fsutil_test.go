package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	for _, raw := range []string{"/tmp", ""} {
		got, err := ExpandHome(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
	p, err := ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, home, p)

	exp, err := ExpandHome("~/models/x.gguf")
	require.NoError(t, err)
	assert.Equal(t, "x.gguf", filepath.Base(exp))
	if runtime.GOOS != "windows" {
		assert.Equal(t, filepath.Join(home, "models", "x.gguf"), exp)
	}
}

func TestRegularFileSize(t *testing.T) {
	d := t.TempDir()
	_, ok := RegularFileSize(filepath.Join(d, "missing"))
	assert.False(t, ok, "missing file")
	_, ok = RegularFileSize(d)
	assert.False(t, ok, "directory")

	empty := filepath.Join(d, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, ok = RegularFileSize(empty)
	assert.False(t, ok, "empty file")

	full := filepath.Join(d, "full")
	require.NoError(t, os.WriteFile(full, []byte("GGUF"), 0o644))
	n, ok := RegularFileSize(full)
	assert.True(t, ok)
	assert.EqualValues(t, 4, n)
}

func TestEnsureParentDirAndRemove(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "a", "b", "model.gguf")
	require.NoError(t, EnsureParentDir(p))
	assert.DirExists(t, filepath.Dir(p))
	assert.NoError(t, EnsureParentDir("relative.gguf"))

	assert.NoError(t, RemoveIfExists(p), "remove missing")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, RemoveIfExists(p))
	assert.NoFileExists(t, p)
}
