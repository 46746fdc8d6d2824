// Package chat holds the conversation state and the submit/clear loop
// around a single inference handle.
package chat

import (
	"errors"
	"time"
)

// Role tags who authored a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

var (
	// ErrEmptyInput is returned by Submit for empty or whitespace-only text.
	// The session is left unchanged.
	ErrEmptyInput = errors.New("empty message")
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
)
