package prompt

import (
	_ "embed"
)

// Instruction sent as the system message with each kind of prompt.
const (
	TailorSystem    = "You are a careful assistant that outputs STRICT JSON only."
	NormalizeSystem = "Output STRICT JSON only. No markdown."
)

const normalizeInstruction = "You are a resume data normalizer. Convert the provided LinkedIn profile text into STRICT JSON matching this schema: " +
	`{"summary": string, "skills": [string,...], "work_experience": [` +
	`{"job_title": string, "company": string, "location": string, "start_date": string, "end_date": string, ` +
	`"company_blurb": string, "responsibilities": [string,...], "achievements": [string,...]}], ` +
	`"early_career": [{"title": string, "company": string, "dates": string}]}. ` +
	"Rules: UK English; dates: Mon YYYY or Present; 3–6 responsibilities, 2–5 achievements per role; no invented facts; no code fences; no trailing commas."

// DefaultTemplate is the starter tailoring prompt written by `cv-customizer init`.
//
//go:embed default_template.mkd
//nolint:gochecknoglobals // embedded asset
var DefaultTemplate string

// Normalize builds the prompt that turns raw profile text into a resume record.
func Normalize(profile string) (prompt string) {
	prompt = normalizeInstruction + "\n\nLINKEDIN PROFILE TEXT:\n" + profile
	return prompt
}
