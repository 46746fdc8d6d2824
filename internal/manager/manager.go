// Package manager owns the model lifecycle: provision the weights, load the
// handle behind an admission gate, and expose the chat service while ready.
package manager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medchat/internal/chat"
	"medchat/internal/llm"
	"medchat/internal/provision"
	"medchat/pkg/types"
)

// Config holds the pieces the manager wires together.
type Config struct {
	Backend    string
	Provision  provision.Options
	Loader     llm.Loader
	QueueDepth int
	MaxWait    time.Duration
	Store      *chat.Store
	Chat       chat.Options
	Logger     zerolog.Logger
}

// Manager implements the HTTP service over one lazily loaded model.
type Manager struct {
	cfg     Config
	log     zerolog.Logger
	started time.Time
	svc     *chat.Service

	mu    sync.RWMutex
	state State
	err   string
	gate  *llm.Gate
	res   provision.Result
}

// New returns a Manager in the loading state. Sessions can be opened before
// the model is ready; submits are rejected until then.
func New(cfg Config) *Manager {
	if cfg.Store == nil {
		cfg.Store = chat.NewStore(0, 0, "")
	}
	m := &Manager{cfg: cfg, log: cfg.Logger, started: time.Now(), state: StateLoading}
	m.svc = chat.NewService(cfg.Store, llm.ModelFunc(m.complete), cfg.Chat)
	return m
}

// Start provisions and loads the model. It blocks until ready or failed.
// A model that finishes loading after Close is released at once.
func (m *Manager) Start(ctx context.Context) error {
	model, res, err := provision.Provision(ctx, m.cfg.Provision, m.cfg.Loader)
	if err != nil {
		m.fail(err)
		return err
	}
	return m.Attach(model, res)
}

// Attach installs an already-loaded model and marks the manager ready. On a
// closed manager the model is closed instead and a not-ready error returned.
func (m *Manager) Attach(model llm.Model, res provision.Result) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		m.log.Warn().Str("path", res.Path).Msg("model loaded after close; releasing")
		if err := model.Close(); err != nil {
			return err
		}
		return notReadyError{state: StateClosed}
	}
	m.gate = llm.NewGate(model, m.cfg.QueueDepth, m.cfg.MaxWait)
	m.res = res
	m.state = StateReady
	m.err = ""
	m.mu.Unlock()
	m.log.Info().Str("backend", m.cfg.Backend).Str("path", res.Path).Msg("model ready")
	return nil
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateError
	m.err = err.Error()
	m.mu.Unlock()
	m.log.Error().Err(err).Msg("model load failed")
}

// Snapshot returns the state and last error.
func (m *Manager) Snapshot() (State, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.err
}

// Ready reports whether submits can be served.
func (m *Manager) Ready() bool {
	st, _ := m.Snapshot()
	return st == StateReady
}

func (m *Manager) notReady() error {
	st, cause := m.Snapshot()
	if st == StateReady {
		return nil
	}
	return notReadyError{state: st, cause: cause}
}

func (m *Manager) complete(ctx context.Context, prompt string, p llm.Params) (llm.Result, error) {
	m.mu.RLock()
	gate := m.gate
	m.mu.RUnlock()
	if gate == nil {
		return llm.Result{}, m.notReady()
	}
	return gate.Complete(ctx, prompt, p)
}

// Open returns the session for id, creating one when needed.
func (m *Manager) Open(id string) (*chat.Session, bool) { return m.svc.Open(id) }

// Session looks up an existing session without creating one.
func (m *Manager) Session(id string) (*chat.Session, error) { return m.svc.Session(id) }

// Submit runs one chat turn. Blank text is ErrEmptyInput in any state;
// otherwise it fails without touching the session while the model is not
// ready.
func (m *Manager) Submit(ctx context.Context, id, text string) (chat.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Turn{}, chat.ErrEmptyInput
	}
	if err := m.notReady(); err != nil {
		return chat.Turn{}, err
	}
	return m.svc.Submit(ctx, id, text)
}

// Clear resets session id.
func (m *Manager) Clear(id string) error { return m.svc.Clear(id) }

// Transcript returns the turns of session id.
func (m *Manager) Transcript(id string) ([]chat.Turn, error) { return m.svc.Transcript(id) }

// Status builds the /status payload.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		State:          string(m.state),
		Backend:        m.cfg.Backend,
		ModelPath:      m.res.Path,
		Downloaded:     m.res.Downloaded,
		Sessions:       m.svc.Sessions(),
		Error:          m.err,
		UptimeSeconds:  int64(time.Since(m.started).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	if m.gate != nil {
		resp.QueueLen = m.gate.Pending()
		resp.MaxQueueDepth = m.gate.Capacity()
		if m.gate.Busy() {
			resp.Inflight = 1
		}
	}
	return resp
}

// Close waits for the running completion, then releases the model and drops
// all sessions.
func (m *Manager) Close() error {
	m.mu.Lock()
	gate := m.gate
	m.gate = nil
	m.state = StateClosed
	m.mu.Unlock()
	m.cfg.Store.Purge()
	if gate == nil {
		return nil
	}
	return gate.Close()
}
