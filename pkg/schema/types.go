package schema

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Record is the canonical structured resume.
type Record struct {
	Summary        string      `json:"summary"`
	Skills         []string    `json:"skills"`
	WorkExperience []Role      `json:"work_experience"`
	EarlyCareer    []EarlyRole `json:"early_career"`

	// raw is the compact source JSON, kept so it can be re-emitted in its original key order.
	raw []byte
}

// Role is one position in work_experience.
type Role struct {
	JobTitle         string   `json:"job_title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	CompanyBlurb     string   `json:"company_blurb"`
	Responsibilities []string `json:"responsibilities"`
	Achievements     []string `json:"achievements"`
}

// EarlyRole is a condensed entry in early_career.
type EarlyRole struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Dates   string `json:"dates"`
}

// JSON returns the record as compact JSON. Records produced by a Coercer keep the key
// order and any extra keys of the source text.
func (r Record) JSON() (data []byte, err error) {
	if len(r.raw) > 0 {
		data = make([]byte, len(r.raw))
		copy(data, r.raw)
		return data, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err = enc.Encode(r)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal resume record")
		return data, err
	}

	data = bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return data, err
}

// compact re-emits a JSON document without whitespace, in source key order. String escapes
// are decoded, so non-ASCII characters are written as themselves.
func compact(text string) (data []byte) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	writeValue(&buf, enc, gjson.Parse(text))
	data = buf.Bytes()
	return data
}

func writeValue(buf *bytes.Buffer, enc *json.Encoder, value gjson.Result) {
	switch {
	case value.IsObject():
		buf.WriteByte('{')
		first := true
		value.ForEach(func(key, child gjson.Result) (more bool) {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeString(buf, enc, key.Str)
			buf.WriteByte(':')
			writeValue(buf, enc, child)
			more = true
			return more
		})
		buf.WriteByte('}')
	case value.IsArray():
		buf.WriteByte('[')
		first := true
		value.ForEach(func(_, child gjson.Result) (more bool) {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeValue(buf, enc, child)
			more = true
			return more
		})
		buf.WriteByte(']')
	case value.Type == gjson.String:
		writeString(buf, enc, value.Str)
	default:
		buf.WriteString(value.Raw)
	}
}

// writeString appends s as a JSON string. Encoding a Go string cannot fail.
func writeString(buf *bytes.Buffer, enc *json.Encoder, s string) {
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1)
}

// Context returns the record as a generic map, the shape document templates render
// against. Keys outside the schema are included.
func (r Record) Context() (ctx map[string]interface{}, err error) {
	var data []byte
	data, err = r.JSON()
	if err != nil {
		return ctx, err
	}

	err = json.Unmarshal(data, &ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to decode resume record into template context")
		return ctx, err
	}

	return ctx, err
}
