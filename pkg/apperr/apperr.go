package apperr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind identifies a failure class. Each class maps to its own process exit code.
type Kind int

const (
	// Unknown is any error that was not classified.
	Unknown Kind = iota
	// InputRead covers unreadable template, CV, or data files.
	InputRead
	// Fetch covers network errors and non-2xx responses.
	Fetch
	// CredentialMissing means no API key could be resolved.
	CredentialMissing
	// EmptyResponse means the model returned no content.
	EmptyResponse
	// Schema means the model output could not be coerced into a record.
	Schema
	// PDF covers PDF text extraction failures.
	PDF
	// Render covers document template failures.
	Render
	// Persist covers output write failures.
	Persist
	// Model covers failed model API calls.
	Model
	// Usage covers bad flags and invalid configuration.
	Usage
)

//nolint:gochecknoglobals // static lookup table
var exitCodes = map[Kind]int{
	Unknown:           1,
	InputRead:         1,
	Fetch:             2,
	CredentialMissing: 3,
	EmptyResponse:     4,
	Schema:            5,
	PDF:               6,
	Render:            7,
	Persist:           8,
	Model:             9,
	Usage:             64,
}

//nolint:gochecknoglobals // static lookup table
var kindNames = map[Kind]string{
	Unknown:           "unknown",
	InputRead:         "input_read",
	Fetch:             "fetch",
	CredentialMissing: "credential_missing",
	EmptyResponse:     "empty_model_response",
	Schema:            "schema",
	PDF:               "pdf",
	Render:            "render",
	Persist:           "persist",
	Model:             "model",
	Usage:             "usage",
}

// String returns the failure class name used in logs.
func (k Kind) String() (name string) {
	name = kindNames[k]
	if name == "" {
		name = kindNames[Unknown]
	}
	return name
}

// Error tags an underlying error with its failure class.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() (msg string) {
	if e.Err == nil {
		msg = e.Kind.String()
		return msg
	}
	msg = e.Err.Error()
	return msg
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() (err error) {
	err = e.Err
	return err
}

// New tags err with kind. A nil err stays nil.
func New(kind Kind, err error) (tagged error) {
	if err == nil {
		return tagged
	}
	tagged = &Error{Kind: kind, Err: err}
	return tagged
}

// Newf builds a tagged error from a format string.
func Newf(kind Kind, format string, args ...interface{}) (tagged error) {
	tagged = &Error{Kind: kind, Err: errors.Errorf(format, args...)}
	return tagged
}

// Wrap wraps err with a message and tags it with kind.
func Wrap(kind Kind, err error, message string) (tagged error) {
	if err == nil {
		return tagged
	}
	tagged = &Error{Kind: kind, Err: errors.Wrap(err, message)}
	return tagged
}

// Wrapf is Wrap with a format string.
func Wrapf(kind Kind, err error, format string, args ...interface{}) (tagged error) {
	if err == nil {
		return tagged
	}
	tagged = &Error{Kind: kind, Err: errors.Wrapf(err, format, args...)}
	return tagged
}

// KindOf returns the outermost failure class found in the error chain.
func KindOf(err error) (kind Kind) {
	var tagged *Error
	if stderrors.As(err, &tagged) {
		kind = tagged.Kind
		return kind
	}
	kind = Unknown
	return kind
}

// Is reports whether err carries the given failure class.
func Is(err error, kind Kind) (ok bool) {
	ok = err != nil && KindOf(err) == kind
	return ok
}

// ExitCode maps an error to the process exit code for its class. A nil error exits 0.
func ExitCode(err error) (code int) {
	if err == nil {
		return code
	}
	code = exitCodes[KindOf(err)]
	return code
}
