package features

import "fmt"

// DataFormatError reports a reference dataset that cannot be turned into
// feature ranges. It is fatal at startup.
type DataFormatError struct {
	Path   string
	Column string
	Row    int // 1-based data row, 0 when the problem is not row-specific
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := "dataset"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// ShapeMismatchError is returned when a vector does not have one value per
// model feature. Vectors are never truncated or padded.
type ShapeMismatchError struct {
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("expected %d features, got %d", e.Want, e.Got)
}

// InvalidInputError is returned for a value that is missing, non-numeric,
// non-finite or outside the feature's observed range.
type InvalidInputError struct {
	Index  int
	Name   string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	if e.Value == "" {
		return fmt.Sprintf("feature %s: %s", name, e.Reason)
	}
	return fmt.Sprintf("feature %s: value %s %s", name, e.Value, e.Reason)
}
