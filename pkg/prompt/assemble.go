package prompt

import (
	"strings"
)

// Markers recognised in a prompt template.
const (
	JobSpecHeader      = "===== INPUT A: JOB_SPEC ====="
	JobSpecPlaceholder = "[PASTE FULL JOB SPEC OR RECRUITER EMAIL HERE]"
	CVHeader           = "===== INPUT B: CV_MD ====="
	CVPlaceholder      = "[PASTE YOUR MARKDOWN CV HERE]"

	jobSpecEnd = "===== END INPUT A ====="
	cvEnd      = "===== END INPUT B ====="
)

// Mode reports how Assemble combined its inputs.
type Mode string

const (
	// ModeInline means the placeholders were replaced in place.
	ModeInline Mode = "inline"
	// ModeAppend means the inputs were appended after the template with sentinel lines.
	ModeAppend Mode = "append"
)

// Assemble merges the job spec and CV text into the template.
func Assemble(template, jobSpec, cv string) (prompt string) {
	prompt, _ = AssembleMode(template, jobSpec, cv)
	return prompt
}

// AssembleMode is Assemble that also reports which mode was used.
//
// Inline mode needs both headers and both placeholders. Every placeholder occurrence is
// replaced in one pass, so substituted text is never scanned again.
func AssembleMode(template, jobSpec, cv string) (prompt string, mode Mode) {
	if hasInlineMarkers(template) {
		r := strings.NewReplacer(JobSpecPlaceholder, jobSpec, CVPlaceholder, cv)
		prompt = r.Replace(template)
		mode = ModeInline
		return prompt, mode
	}

	var b strings.Builder
	b.Grow(len(template) + len(jobSpec) + len(cv) + 128)
	b.WriteString(template)
	b.WriteString("\n\n")
	b.WriteString(JobSpecHeader + "\n")
	b.WriteString(jobSpec)
	b.WriteString("\n" + jobSpecEnd + "\n\n")
	b.WriteString(CVHeader + "\n")
	b.WriteString(cv)
	b.WriteString("\n" + cvEnd + "\n")

	prompt = b.String()
	mode = ModeAppend
	return prompt, mode
}

func hasInlineMarkers(template string) (ok bool) {
	for _, marker := range []string{JobSpecHeader, JobSpecPlaceholder, CVHeader, CVPlaceholder} {
		if !strings.Contains(template, marker) {
			return ok
		}
	}
	ok = true
	return ok
}
