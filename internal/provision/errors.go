package provision

import (
	"errors"
	"fmt"
)

// DownloadError wraps a failed fetch of the weights file.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("download %s: %v", e.URL, e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }

// IsDownloadError reports whether err came from the download step.
func IsDownloadError(err error) bool {
	var d *DownloadError
	return errors.As(err, &d)
}

// InvalidModelError reports a file that is not GGUF.
type InvalidModelError struct {
	Path   string
	Reason string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid model file %s: %s", e.Path, e.Reason)
}

// IsInvalidModel reports whether err is an InvalidModelError.
func IsInvalidModel(err error) bool {
	var m *InvalidModelError
	return errors.As(err, &m)
}
