package render

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func templateFuncs() (funcs template.FuncMap) {
	funcs = template.FuncMap{
		"emit":   emit,
		"upper":  func(v interface{}) string { return strings.ToUpper(toString(v)) },
		"lower":  func(v interface{}) string { return strings.ToLower(toString(v)) },
		"trim":   func(v interface{}) string { return strings.TrimSpace(toString(v)) },
		"title":  func(v interface{}) string { return cases.Title(language.Und).String(toString(v)) },
		"join":   join,
		"length": length,
		"inc":    func(i int) int { return i + 1 },
		"last":   last,
	}
	return funcs
}

// emit formats a value for document text.
func emit(v interface{}) (s string) {
	s = stripMarkers(toString(v))
	return s
}

func toString(v interface{}) (s string) {
	switch x := v.(type) {
	case nil:
		s = ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = toString(item)
		}
		s = strings.Join(parts, ", ")
	default:
		s = fmt.Sprint(x)
	}
	return s
}

func join(sep string, v interface{}) (s string, err error) {
	switch x := v.(type) {
	case nil:
		return s, err
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = toString(item)
		}
		s = strings.Join(parts, sep)
	case []string:
		s = strings.Join(x, sep)
	case string:
		s = x
	default:
		err = errors.Errorf("join expects a list, got %T", v)
	}
	return s, err
}

func length(v interface{}) (n int, err error) {
	if v == nil {
		return n, err
	}
	if s, ok := v.(string); ok {
		n = utf8.RuneCountInString(s)
		return n, err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		n = rv.Len()
	default:
		err = errors.Errorf("length of %T is undefined", v)
	}
	return n, err
}

func last(i int, v interface{}) (ok bool, err error) {
	var n int
	n, err = length(v)
	if err != nil {
		return ok, err
	}
	ok = i == n-1
	return ok, err
}
