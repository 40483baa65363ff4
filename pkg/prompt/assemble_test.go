package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markedTemplate = `Tailor the CV.

===== INPUT A: JOB_SPEC =====
[PASTE FULL JOB SPEC OR RECRUITER EMAIL HERE]
===== END INPUT A =====

===== INPUT B: CV_MD =====
[PASTE YOUR MARKDOWN CV HERE]
===== END INPUT B =====
`

func TestAssembleInline(t *testing.T) {
	job := "Senior Go Engineer at Acme"
	cv := "# Jane Doe\n- Built things"

	got, mode := AssembleMode(markedTemplate, job, cv)

	assert.Equal(t, ModeInline, mode)
	assert.NotContains(t, got, JobSpecPlaceholder)
	assert.NotContains(t, got, CVPlaceholder)
	assert.Equal(t, 1, strings.Count(got, job))
	assert.Equal(t, 1, strings.Count(got, cv))
	assert.Contains(t, got, JobSpecHeader+"\n"+job+"\n===== END INPUT A =====")
	assert.Contains(t, got, CVHeader+"\n"+cv+"\n===== END INPUT B =====")
	assert.True(t, strings.Index(got, job) < strings.Index(got, cv))
}

func TestAssembleInlineDoesNotRescanSubstitutions(t *testing.T) {
	job := "Mention " + CVPlaceholder + " verbatim"
	cv := "cv body"

	got := Assemble(markedTemplate, job, cv)

	assert.Contains(t, got, job)
	assert.Equal(t, 1, strings.Count(got, cv))
}

func TestAssembleInlineReplacesEveryOccurrence(t *testing.T) {
	template := markedTemplate + "\nReminder: " + JobSpecPlaceholder + "\n"

	got := Assemble(template, "<<JOBTEXT>>", "<<CVTEXT>>")

	assert.NotContains(t, got, JobSpecPlaceholder)
	assert.Equal(t, 2, strings.Count(got, "<<JOBTEXT>>"))
	assert.Equal(t, 1, strings.Count(got, "<<CVTEXT>>"))
}

func TestAssembleFallback(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{name: "no markers", template: "Tailor the CV."},
		{name: "headers without placeholders", template: JobSpecHeader + "\n" + CVHeader + "\n"},
		{name: "placeholders without headers", template: JobSpecPlaceholder + "\n" + CVPlaceholder + "\n"},
		{name: "only job spec markers", template: JobSpecHeader + "\n" + JobSpecPlaceholder + "\n"},
		{name: "empty", template: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mode := AssembleMode(tt.template, "JOB TEXT", "CV TEXT")

			assert.Equal(t, ModeAppend, mode)
			require.True(t, strings.HasPrefix(got, tt.template))
			assert.True(t, strings.HasSuffix(got,
				"\n\n===== INPUT A: JOB_SPEC =====\nJOB TEXT\n===== END INPUT A =====\n\n===== INPUT B: CV_MD =====\nCV TEXT\n===== END INPUT B =====\n"))
		})
	}
}

func TestDefaultTemplateUsesInlineMode(t *testing.T) {
	_, mode := AssembleMode(DefaultTemplate, "job", "cv")
	assert.Equal(t, ModeInline, mode)
}

func TestNormalize(t *testing.T) {
	got := Normalize("Jane Doe\nStaff Engineer")

	assert.True(t, strings.HasPrefix(got, "You are a resume data normalizer."))
	assert.Contains(t, got, `"work_experience"`)
	assert.Contains(t, got, "dates: Mon YYYY or Present")
	assert.True(t, strings.HasSuffix(got, "\n\nLINKEDIN PROFILE TEXT:\nJane Doe\nStaff Engineer"))
}
