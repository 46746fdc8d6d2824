package llm

import (
	"errors"
	"time"
)

// tooBusyError signals queue overflow or wait timeout for 429 mapping.
type tooBusyError struct{ waited time.Duration }

func (e tooBusyError) Error() string {
	if e.waited > 0 {
		return "model busy: waited " + e.waited.String()
	}
	return "model busy: queue full"
}

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var t tooBusyError
	return errors.As(err, &t)
}

// dependencyUnavailableError signals a missing runtime dependency (llama.cpp
// not compiled in, llama-server unreachable) so the HTTP layer can return 503.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// ErrClosed is returned by a Gate after Close.
var ErrClosed = errors.New("model closed")
