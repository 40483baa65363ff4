package schema

import "fmt"

// ErrorKind classifies a coercion failure.
type ErrorKind int

const (
	// Unparseable means no repair strategy produced valid JSON.
	Unparseable ErrorKind = iota + 1
	// MissingField means a required key is absent.
	MissingField
	// WrongType means a key holds a value of the wrong JSON type.
	WrongType
	// InvalidValue means a value breaks a strict-mode rule (cardinality, date format, fences).
	InvalidValue
)

func (k ErrorKind) String() (name string) {
	switch k {
	case Unparseable:
		name = "unparseable"
	case MissingField:
		name = "missing field"
	case WrongType:
		name = "wrong type"
	case InvalidValue:
		name = "invalid value"
	default:
		name = "schema error"
	}
	return name
}

// Error is returned by Coerce. Raw always holds the unmodified model output.
type Error struct {
	Kind ErrorKind
	Path string
	Raw  string
	Err  error
}

func (e *Error) Error() (msg string) {
	switch {
	case e.Kind == Unparseable && e.Err != nil:
		msg = fmt.Sprintf("model output is not valid JSON: %v", e.Err)
	case e.Kind == Unparseable:
		msg = "model output is not valid JSON"
	case e.Err != nil:
		msg = fmt.Sprintf("%s at %s: %v", e.Kind, displayPath(e.Path), e.Err)
	default:
		msg = fmt.Sprintf("%s at %s", e.Kind, displayPath(e.Path))
	}
	return msg
}

// Unwrap exposes the underlying parse or decode error.
func (e *Error) Unwrap() (err error) {
	err = e.Err
	return err
}

func displayPath(path string) (display string) {
	display = path
	if display == "" {
		display = "top level"
	}
	return display
}
