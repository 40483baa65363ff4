package schema

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Validation selects how strictly a parsed payload is checked against the resume schema.
type Validation int

const (
	// ValidateNone only requires a JSON object.
	ValidateNone Validation = iota
	// ValidateTypes checks the type of every schema key that is present.
	ValidateTypes
	// ValidateRequired also requires every schema key to be present.
	ValidateRequired
	// ValidateStrict also enforces cardinality, date format and the no-fence rule.
	ValidateStrict
)

type fieldType int

const (
	typeString fieldType = iota
	typeStringList
	typeObjectList
)

func (t fieldType) String() (name string) {
	switch t {
	case typeString:
		name = "string"
	case typeStringList:
		name = "array of strings"
	case typeObjectList:
		name = "array of objects"
	}
	return name
}

type field struct {
	key      string
	kind     fieldType
	children []field
	min      int
	max      int
	date     bool
}

//nolint:gochecknoglobals // static schema description
var roleFields = []field{
	{key: "job_title", kind: typeString},
	{key: "company", kind: typeString},
	{key: "location", kind: typeString},
	{key: "start_date", kind: typeString, date: true},
	{key: "end_date", kind: typeString, date: true},
	{key: "company_blurb", kind: typeString},
	{key: "responsibilities", kind: typeStringList, min: 3, max: 6},
	{key: "achievements", kind: typeStringList, min: 2, max: 5},
}

//nolint:gochecknoglobals // static schema description
var earlyCareerFields = []field{
	{key: "title", kind: typeString},
	{key: "company", kind: typeString},
	{key: "dates", kind: typeString},
}

//nolint:gochecknoglobals // static schema description
var recordFields = []field{
	{key: "summary", kind: typeString},
	{key: "skills", kind: typeStringList},
	{key: "work_experience", kind: typeObjectList, children: roleFields},
	{key: "early_career", kind: typeObjectList, children: earlyCareerFields},
}

// datePattern accepts "Mon YYYY" or "Present".
//
//nolint:gochecknoglobals // compiled once
var datePattern = regexp.MustCompile(`^(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{4}|Present)$`)

const codeFence = "```"

// validate checks a payload that is already known to be valid JSON.
func validate(text string, level Validation) (err error) {
	root := gjson.Parse(text)
	if !root.IsObject() {
		err = &Error{Kind: WrongType, Err: errors.New("expected a single JSON object")}
		return err
	}

	if level == ValidateNone {
		return err
	}

	err = validateObject(root, recordFields, "", level)
	if err != nil {
		return err
	}

	if level == ValidateStrict {
		err = checkNoFences(root, "")
	}

	return err
}

func validateObject(obj gjson.Result, fields []field, prefix string, level Validation) (err error) {
	for _, f := range fields {
		path := joinPath(prefix, f.key)
		value := obj.Get(f.key)

		if !value.Exists() {
			if level >= ValidateRequired {
				err = &Error{Kind: MissingField, Path: path}
				return err
			}
			continue
		}

		err = validateField(value, f, path, level)
		if err != nil {
			return err
		}
	}

	return err
}

func validateField(value gjson.Result, f field, path string, level Validation) (err error) {
	switch f.kind {
	case typeString:
		if value.Type != gjson.String {
			err = wrongType(path, f.kind, value)
			return err
		}
		if level == ValidateStrict && f.date && !datePattern.MatchString(value.Str) {
			err = &Error{Kind: InvalidValue, Path: path, Err: errors.Errorf("date %q is not \"Mon YYYY\" or \"Present\"", value.Str)}
			return err
		}

	case typeStringList:
		if !value.IsArray() {
			err = wrongType(path, f.kind, value)
			return err
		}
		items := value.Array()
		for i, item := range items {
			if item.Type != gjson.String {
				err = wrongType(joinPath(path, strconv.Itoa(i)), typeString, item)
				return err
			}
		}
		if level == ValidateStrict {
			err = checkCardinality(path, len(items), f.min, f.max)
			if err != nil {
				return err
			}
		}

	case typeObjectList:
		if !value.IsArray() {
			err = wrongType(path, f.kind, value)
			return err
		}
		for i, item := range value.Array() {
			itemPath := joinPath(path, strconv.Itoa(i))
			if !item.IsObject() {
				err = &Error{Kind: WrongType, Path: itemPath, Err: errors.Errorf("expected object, got %s", describe(item))}
				return err
			}
			err = validateObject(item, f.children, itemPath, level)
			if err != nil {
				return err
			}
		}
	}

	return err
}

func checkCardinality(path string, count, minimum, maximum int) (err error) {
	if minimum > 0 && count < minimum {
		err = &Error{Kind: InvalidValue, Path: path, Err: errors.Errorf("has %d entries, want at least %d", count, minimum)}
		return err
	}
	if maximum > 0 && count > maximum {
		err = &Error{Kind: InvalidValue, Path: path, Err: errors.Errorf("has %d entries, want at most %d", count, maximum)}
		return err
	}
	return err
}

// checkNoFences rejects any string value, anywhere in the payload, that carries a code fence.
func checkNoFences(value gjson.Result, path string) (err error) {
	switch {
	case value.Type == gjson.String:
		if strings.Contains(value.Str, codeFence) {
			err = &Error{Kind: InvalidValue, Path: path, Err: errors.New("contains a code fence marker")}
		}
	case value.IsObject() || value.IsArray():
		index := 0
		value.ForEach(func(key, child gjson.Result) (more bool) {
			childKey := key.String()
			if value.IsArray() {
				childKey = strconv.Itoa(index)
			}
			index++
			err = checkNoFences(child, joinPath(path, childKey))
			more = err == nil
			return more
		})
	}
	return err
}

func wrongType(path string, want fieldType, got gjson.Result) (err error) {
	err = &Error{Kind: WrongType, Path: path, Err: errors.Errorf("expected %s, got %s", want, describe(got))}
	return err
}

func describe(value gjson.Result) (name string) {
	switch {
	case value.IsObject():
		name = "object"
	case value.IsArray():
		name = "array"
	case value.Type == gjson.String:
		name = "string"
	case value.Type == gjson.Number:
		name = "number"
	case value.Type == gjson.True || value.Type == gjson.False:
		name = "boolean"
	default:
		name = "null"
	}
	return name
}

func joinPath(prefix, key string) (path string) {
	if prefix == "" {
		path = key
		return path
	}
	path = prefix + "." + key
	return path
}
