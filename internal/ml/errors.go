package ml

import "fmt"

// ModelLoadError is returned when the classifier artifact is missing,
// corrupt or structurally incompatible. It is fatal at startup; there is no
// fallback model.
type ModelLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ModelLoadError) Error() string {
	msg := "load model"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

func loadErrorf(path string, err error, format string, args ...any) *ModelLoadError {
	return &ModelLoadError{Path: path, Reason: fmt.Sprintf(format, args...), Err: err}
}
