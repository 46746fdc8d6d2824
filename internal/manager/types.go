package manager

import "errors"

// State represents the lifecycle state of the model.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
	StateClosed  State = "closed"
)

// notReadyError is returned while the model is loading or after it failed.
type notReadyError struct {
	state State
	cause string
}

func (e notReadyError) Error() string {
	if e.cause != "" {
		return "model " + string(e.state) + ": " + e.cause
	}
	return "model " + string(e.state)
}

// StatusCode maps to 503 for the HTTP layer.
func (e notReadyError) StatusCode() int { return 503 }

// IsNotReady reports whether err means the model cannot serve yet.
func IsNotReady(err error) bool {
	var n notReadyError
	return errors.As(err, &n)
}
