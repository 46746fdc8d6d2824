package chat

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Completer produces the assistant reply for the turns so far. The last turn
// is the user message being answered.
type Completer func(ctx context.Context, turns []Turn) (string, error)

// Session is one conversation. Submit and Clear are serialized; Turns may be
// read while a submit is waiting on the model.
type Session struct {
	ID     string
	system string

	// submitMu orders Submit and Clear. mu guards turns.
	submitMu sync.Mutex
	mu       sync.RWMutex
	turns    []Turn
	lastErr  string

	now func() time.Time
}

// NewSession returns a session seeded with exactly one system turn.
func NewSession(id, systemPrompt string) *Session {
	s := &Session{ID: id, system: systemPrompt, now: time.Now}
	s.turns = []Turn{s.systemTurn()}
	return s
}

func (s *Session) systemTurn() Turn {
	return Turn{Role: RoleSystem, Content: s.system, At: s.now()}
}

// Submit appends the user turn, asks complete for a reply and appends the
// trimmed reply. On error the user turn stays and no assistant turn is added.
func (s *Session) Submit(ctx context.Context, text string, complete Completer) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyInput
	}
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mu.Lock()
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: text, At: s.now()})
	s.lastErr = ""
	snapshot := append([]Turn(nil), s.turns...)
	s.mu.Unlock()

	out, err := complete(ctx, snapshot)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return Turn{}, err
	}
	reply := Turn{Role: RoleAssistant, Content: strings.TrimSpace(out), At: s.now()}
	s.mu.Lock()
	s.turns = append(s.turns, reply)
	s.mu.Unlock()
	return reply, nil
}

// Clear resets the session to a fresh system turn. Calling it twice leaves
// the same single-turn state.
func (s *Session) Clear() {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	s.mu.Lock()
	s.turns = []Turn{s.systemTurn()}
	s.lastErr = ""
	s.mu.Unlock()
}

// Turns returns a copy of the turn sequence.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns...)
}

// Len reports the number of turns including the system turn.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// LastError returns the message of the most recent failed submit, cleared by
// the next submit or Clear.
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
