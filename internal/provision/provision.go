// Package provision makes sure the GGUF weights file is on disk before the
// inference handle is built.
package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medchat/internal/common/fsutil"
	"medchat/internal/llm"
)

// CachePolicy selects where the weights file lives.
type CachePolicy string

const (
	// Persistent reuses a fixed path across runs.
	Persistent CachePolicy = "persistent"
	// Temp downloads into a fresh temp file that is removed on Close.
	Temp CachePolicy = "temp"
)

// ParseCachePolicy accepts "persistent" (default when empty) or "temp".
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch CachePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Persistent:
		return Persistent, nil
	case Temp:
		return Temp, nil
	default:
		return "", fmt.Errorf("unknown cache policy %q", s)
	}
}

var ggufMagic = []byte("GGUF")

// Options controls Ensure.
type Options struct {
	URL        string
	Path       string
	Policy     CachePolicy
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Result describes the file Ensure produced.
type Result struct {
	Path       string
	Downloaded bool
	Bytes      int64
	Temporary  bool
}

// Ensure returns a readable GGUF file, downloading it when needed.
func Ensure(ctx context.Context, opts Options) (Result, error) {
	log := opts.Logger
	switch opts.Policy {
	case "", Persistent:
		path, err := fsutil.ExpandHome(strings.TrimSpace(opts.Path))
		if err != nil {
			return Result{}, err
		}
		if path == "" {
			return Result{}, errors.New("model path is empty")
		}
		if size, ok := fsutil.RegularFileSize(path); ok {
			if err := checkMagic(path); err != nil {
				return Result{}, err
			}
			log.Info().Str("path", path).Int64("bytes", size).Msg("model cached")
			return Result{Path: path, Bytes: size}, nil
		}
		if err := fsutil.EnsureParentDir(path); err != nil {
			return Result{}, err
		}
		part := path + ".part"
		f, err := os.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return Result{}, fmt.Errorf("create %s: %w", part, err)
		}
		n, err := download(ctx, opts, f)
		if err != nil {
			_ = fsutil.RemoveIfExists(part)
			return Result{}, err
		}
		if err := checkMagic(part); err != nil {
			_ = fsutil.RemoveIfExists(part)
			return Result{}, err
		}
		if err := os.Rename(part, path); err != nil {
			_ = fsutil.RemoveIfExists(part)
			return Result{}, fmt.Errorf("rename %s: %w", part, err)
		}
		return Result{Path: path, Downloaded: true, Bytes: n}, nil
	case Temp:
		f, err := os.CreateTemp("", "medchat-*.gguf")
		if err != nil {
			return Result{}, fmt.Errorf("failed to create temp file: %w", err)
		}
		path := f.Name()
		n, err := download(ctx, opts, f)
		if err != nil {
			_ = fsutil.RemoveIfExists(path)
			return Result{}, err
		}
		if err := checkMagic(path); err != nil {
			_ = fsutil.RemoveIfExists(path)
			return Result{}, err
		}
		return Result{Path: path, Downloaded: true, Bytes: n, Temporary: true}, nil
	default:
		return Result{}, fmt.Errorf("unknown cache policy %q", opts.Policy)
	}
}

// download streams opts.URL into f, syncs and closes it.
func download(ctx context.Context, opts Options, f *os.File) (int64, error) {
	defer f.Close()
	fail := func(err error) (int64, error) {
		downloadsTotal.WithLabelValues("error").Inc()
		return 0, &DownloadError{URL: opts.URL, Err: err}
	}
	if strings.TrimSpace(opts.URL) == "" {
		return fail(errors.New("model url is empty"))
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fail(err)
	}
	start := time.Now()
	opts.Logger.Info().Str("url", opts.URL).Str("dest", f.Name()).Msg("downloading model")
	resp, err := client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Errorf("unexpected status %s", resp.Status))
	}
	pw := newProgressWriter(opts.Logger, resp.ContentLength)
	n, err := io.Copy(f, io.TeeReader(resp.Body, pw))
	if err != nil {
		return fail(err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fail(fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("failed to fsync model file: %w", err))
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	downloadsTotal.WithLabelValues("ok").Inc()
	opts.Logger.Info().Int64("bytes", n).Dur("elapsed", time.Since(start)).Msg("download complete")
	return n, nil
}

// checkMagic verifies the GGUF header. It is a format check, not a checksum.
func checkMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	head := make([]byte, len(ggufMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return &InvalidModelError{Path: path, Reason: "file too short"}
	}
	if !bytes.Equal(head, ggufMagic) {
		return &InvalidModelError{Path: path, Reason: "missing GGUF header"}
	}
	return nil
}

// Provision runs Ensure and loads the file. With the temp policy the returned
// model removes the file on Close.
func Provision(ctx context.Context, opts Options, loader llm.Loader) (llm.Model, Result, error) {
	res, err := Ensure(ctx, opts)
	if err != nil {
		return nil, Result{}, err
	}
	m, err := loader.Load(ctx, res.Path)
	if err != nil {
		if res.Temporary {
			_ = fsutil.RemoveIfExists(res.Path)
		}
		return nil, res, err
	}
	if res.Temporary {
		m = &tempModel{Model: m, path: res.Path}
	}
	opts.Logger.Info().Str("path", res.Path).Bool("downloaded", res.Downloaded).Msg("model loaded")
	return m, res, nil
}

type tempModel struct {
	llm.Model
	path string
}

func (t *tempModel) Close() error {
	err := t.Model.Close()
	if rmErr := fsutil.RemoveIfExists(t.path); err == nil {
		err = rmErr
	}
	return err
}
