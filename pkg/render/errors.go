package render

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a render failure.
type Kind int

const (
	// KindSyntax is an unsupported, unclosed or misplaced template tag.
	KindSyntax Kind = iota + 1
	// KindTemplateMismatch is a template reference the data cannot satisfy.
	KindTemplateMismatch
)

func (k Kind) String() (name string) {
	switch k {
	case KindSyntax:
		name = "template syntax error"
	case KindTemplateMismatch:
		name = "template does not match data"
	default:
		name = "render error"
	}
	return name
}

// Error is returned by Render.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() (msg string) {
	msg = fmt.Sprintf("%s: %v", e.Kind, e.Err)
	msg = stripMarkers(msg)
	return msg
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() (err error) {
	err = e.Err
	return err
}

func syntaxErrorf(format string, args ...interface{}) (err error) {
	err = &Error{Kind: KindSyntax, Err: errors.Errorf(format, args...)}
	return err
}

func stripMarkers(s string) (clean string) {
	clean = strings.Map(func(r rune) rune {
		if r == markOpen || r == markClose {
			return -1
		}
		return r
	}, s)
	return clean
}

func errorf(format string, args ...interface{}) (err error) {
	err = errors.Errorf(format, args...)
	return err
}
