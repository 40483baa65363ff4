package schema

import (
	"encoding/json"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Repair is a named text transformation tried when the raw model output does not parse.
type Repair struct {
	Name  string
	Apply func(text string) (repaired string)
}

// languageTag matches the info string left on the first line after a fence is stripped.
//
//nolint:gochecknoglobals // compiled once
var languageTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+-]*$`)

// StripCodeFence removes surrounding backtick fences and a bare language tag line.
//
//nolint:gochecknoglobals // immutable strategy value
var StripCodeFence = Repair{
	Name:  "strip-code-fence",
	Apply: stripCodeFence,
}

// DefaultRepairs returns the repair list used when none is configured.
func DefaultRepairs() (repairs []Repair) {
	repairs = []Repair{StripCodeFence}
	return repairs
}

// Coercer turns model output into a Record.
type Coercer struct {
	repairs    []Repair
	validation Validation
}

// Option configures a Coercer.
type Option func(c *Coercer)

// WithRepairs replaces the ordered repair list.
func WithRepairs(repairs ...Repair) (opt Option) {
	opt = func(c *Coercer) {
		c.repairs = repairs
	}
	return opt
}

// WithValidation sets how much field checking happens after a successful parse.
func WithValidation(v Validation) (opt Option) {
	opt = func(c *Coercer) {
		c.validation = v
	}
	return opt
}

// NewCoercer creates a coercer with the default repairs and required-field validation.
func NewCoercer(opts ...Option) (c *Coercer) {
	c = &Coercer{
		repairs:    DefaultRepairs(),
		validation: ValidateRequired,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Coerce parses raw, applying each repair once in order until one parses.
func (c *Coercer) Coerce(raw string) (rec Record, err error) {
	rec, _, err = c.CoerceWithRepair(raw)
	return rec, err
}

// CoerceWithRepair is Coerce that also reports the name of the repair that succeeded,
// or an empty string when the raw text parsed directly.
func (c *Coercer) CoerceWithRepair(raw string) (rec Record, repair string, err error) {
	var text string
	text, repair, err = c.parse(raw)
	if err != nil {
		return rec, repair, err
	}

	err = validate(text, c.validation)
	if err != nil {
		var schemaErr *Error
		if stderrors.As(err, &schemaErr) {
			schemaErr.Raw = raw
		}
		return rec, repair, err
	}

	err = json.Unmarshal([]byte(text), &rec)
	if err != nil {
		err = decodeError(err, raw)
		return rec, repair, err
	}

	rec.raw = compact(text)

	return rec, repair, err
}

// parse returns the first candidate text that decodes to exactly one JSON value.
func (c *Coercer) parse(raw string) (text, repair string, err error) {
	firstErr := parseJSON(raw)
	if firstErr == nil {
		text = raw
		return text, repair, err
	}

	for _, r := range c.repairs {
		candidate := r.Apply(raw)
		if parseJSON(candidate) == nil {
			text = candidate
			repair = r.Name
			return text, repair, err
		}
	}

	err = &Error{Kind: Unparseable, Raw: raw, Err: firstErr}
	return text, repair, err
}

func parseJSON(text string) (err error) {
	var probe interface{}
	err = json.Unmarshal([]byte(text), &probe)
	return err
}

func decodeError(err error, raw string) (schemaErr error) {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		schemaErr = &Error{
			Kind: WrongType,
			Path: typeErr.Field,
			Raw:  raw,
			Err:  errors.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
		return schemaErr
	}

	schemaErr = &Error{Kind: Unparseable, Raw: raw, Err: err}
	return schemaErr
}

func stripCodeFence(text string) (cleaned string) {
	cleaned = strings.TrimSpace(text)
	cleaned = strings.Trim(cleaned, "`")

	firstLine, rest, found := strings.Cut(cleaned, "\n")
	if found && languageTag.MatchString(strings.TrimSpace(firstLine)) && strings.TrimSpace(rest) != "" {
		cleaned = rest
	}

	cleaned = strings.TrimSpace(cleaned)
	return cleaned
}
