package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/nikogura/cv-customizer/pkg/document"
	"github.com/nikogura/cv-customizer/pkg/llm"
	"github.com/nikogura/cv-customizer/pkg/persist"
	"github.com/nikogura/cv-customizer/pkg/prompt"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const record = `{
  "summary": "Platform engineer.",
  "skills": ["Go", "Kubernetes"],
  "work_experience": [],
  "early_career": []
}`

type fakeModel struct {
	reply string
	err   error
	got   []llm.Request
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (text string, err error) {
	m.got = append(m.got, req)
	text, err = m.reply, m.err
	return text, err
}

type fakeFetcher struct {
	pages map[string]string
	got   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (content string, err error) {
	f.got = append(f.got, url)
	content, ok := f.pages[url]
	if !ok {
		err = apperr.Newf(apperr.Fetch, "failed to fetch %s: HTTP status 404", url)
	}
	return content, err
}

type fakeExtractor struct {
	text string
	got  []string
}

func (e *fakeExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	e.got = append(e.got, path)
	text = e.text
	return text, err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() (now time.Time) {
	now = c.t
	return now
}

func writeFile(t *testing.T, dir, name, content string) (path string) {
	t.Helper()
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func para(text string) (xml string) {
	xml = `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
	return xml
}

func writeTemplate(t *testing.T, dir string) (path string) {
	t.Helper()

	body := para("{{ summary }}") +
		`<w:p/>` +
		para("{% for s in skills %}") +
		para("- {{ s }}") +
		para("{% endfor %}") +
		`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">   </w:t></w:r></w:p>` +
		para("End")

	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `<w:sectPr/></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{name: "[Content_Types].xml", content: `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{name: "_rels/.rels", content: `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`},
		{name: "word/document.xml", content: documentXML},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, p.content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path = filepath.Join(dir, "CV_Template.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}

func TestTailor(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeFile(t, tmpDir, "Prompt_Template.mkd",
		prompt.JobSpecHeader+"\n"+prompt.JobSpecPlaceholder+"\n"+prompt.CVHeader+"\n"+prompt.CVPlaceholder+"\n")
	cv := writeFile(t, tmpDir, "fullcv.mkd", "# Jane Doe")

	model := &fakeModel{reply: "```json\n" + record + "\n```"}
	jobs := &fakeFetcher{pages: map[string]string{"https://jobs.example.com/1": "Senior SRE"}}

	var progress []string
	p := &Pipeline{
		Model:       model,
		JobFetcher:  jobs,
		Logger:      zerolog.Nop(),
		BeforeModel: func(msg string) { progress = append(progress, msg) },
		AfterModel:  func() { progress = append(progress, "done") },
	}

	rec, err := p.Tailor(context.Background(), TailorRequest{
		JobURL:         "https://jobs.example.com/1",
		PromptTemplate: template,
		CV:             cv,
		Model:          "gpt-test",
	})
	require.NoError(t, err)

	assert.Equal(t, "Platform engineer.", rec.Summary)
	assert.Equal(t, []string{"Tailoring CV", "done"}, progress)

	require.Len(t, model.got, 1)
	req := model.got[0]
	assert.Equal(t, prompt.TailorSystem, req.System)
	assert.Equal(t, "gpt-test", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, 2000, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Senior SRE")
	assert.Contains(t, req.Prompt, "# Jane Doe")
	assert.NotContains(t, req.Prompt, prompt.JobSpecPlaceholder)
}

func TestTailorCVFromURLAndPDF(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeFile(t, tmpDir, "Prompt_Template.mkd", "Tailor this.")

	jobs := &fakeFetcher{pages: map[string]string{"https://jobs.example.com/1": "job"}}
	profiles := &fakeFetcher{pages: map[string]string{"https://cv.example.com/me": "cv from url"}}
	pdf := &fakeExtractor{text: "cv from pdf"}
	model := &fakeModel{reply: record}

	p := &Pipeline{Model: model, JobFetcher: jobs, ProfileFetcher: profiles, PDF: pdf, Logger: zerolog.Nop()}

	_, err := p.Tailor(context.Background(), TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: "https://cv.example.com/me"})
	require.NoError(t, err)
	assert.Contains(t, model.got[0].Prompt, "cv from url")
	assert.Contains(t, model.got[0].Prompt, "===== END INPUT B =====")

	_, err = p.Tailor(context.Background(), TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: "/tmp/Profile.pdf"})
	require.NoError(t, err)
	assert.Contains(t, model.got[1].Prompt, "cv from pdf")
	assert.Equal(t, []string{"/tmp/Profile.pdf"}, pdf.got)
}

func TestTailorErrors(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeFile(t, tmpDir, "Prompt_Template.mkd", "Tailor this.")
	cv := writeFile(t, tmpDir, "fullcv.mkd", "cv")
	jobs := &fakeFetcher{pages: map[string]string{"https://jobs.example.com/1": "job"}}

	tests := []struct {
		name  string
		req   TailorRequest
		model *fakeModel
		kind  apperr.Kind
	}{
		{
			name:  "missing template",
			req:   TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: filepath.Join(tmpDir, "nope.mkd"), CV: cv},
			model: &fakeModel{reply: record},
			kind:  apperr.InputRead,
		},
		{
			name:  "missing cv",
			req:   TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: filepath.Join(tmpDir, "nope.mkd")},
			model: &fakeModel{reply: record},
			kind:  apperr.InputRead,
		},
		{
			name:  "job fetch fails",
			req:   TailorRequest{JobURL: "https://jobs.example.com/404", PromptTemplate: template, CV: cv},
			model: &fakeModel{reply: record},
			kind:  apperr.Fetch,
		},
		{
			name:  "empty model response",
			req:   TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: cv},
			model: &fakeModel{err: apperr.Newf(apperr.EmptyResponse, "empty response from OpenAI")},
			kind:  apperr.EmptyResponse,
		},
		{
			name:  "invalid model output",
			req:   TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: cv},
			model: &fakeModel{reply: "{not json"},
			kind:  apperr.Schema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{Model: tt.model, JobFetcher: jobs, Logger: zerolog.Nop()}

			_, err := p.Tailor(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestTailorSchemaErrorKeepsRawOutput(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeFile(t, tmpDir, "Prompt_Template.mkd", "Tailor this.")
	cv := writeFile(t, tmpDir, "fullcv.mkd", "cv")

	p := &Pipeline{
		Model:      &fakeModel{reply: "Sure! {not json"},
		JobFetcher: &fakeFetcher{pages: map[string]string{"https://jobs.example.com/1": "job"}},
		Logger:     zerolog.Nop(),
	}

	_, err := p.Tailor(context.Background(), TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: template, CV: cv})
	require.Error(t, err)

	var schemaErr *schema.Error
	require.True(t, stderrors.As(err, &schemaErr))
	assert.Equal(t, "Sure! {not json", schemaErr.Raw)
	assert.Equal(t, 5, apperr.ExitCode(err))
}

func TestImport(t *testing.T) {
	tmpDir := t.TempDir()
	text := writeFile(t, tmpDir, "profile.txt", "Jane Doe, SRE at Acme")

	model := &fakeModel{reply: record}
	pdf := &fakeExtractor{text: "pdf profile"}
	profiles := &fakeFetcher{pages: map[string]string{"https://www.linkedin.com/in/jane": "url profile"}}

	p := &Pipeline{Model: model, PDF: pdf, ProfileFetcher: profiles, Logger: zerolog.Nop()}

	tests := []struct {
		name     string
		req      ImportRequest
		expected string
	}{
		{name: "text", req: ImportRequest{Text: text}, expected: "Jane Doe, SRE at Acme"},
		{name: "pdf", req: ImportRequest{PDF: "/tmp/Profile.pdf"}, expected: "pdf profile"},
		{name: "url", req: ImportRequest{URL: "https://www.linkedin.com/in/jane"}, expected: "url profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model.got = nil

			rec, err := p.Import(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, []string{"Go", "Kubernetes"}, rec.Skills)

			require.Len(t, model.got, 1)
			req := model.got[0]
			assert.Equal(t, prompt.NormalizeSystem, req.System)
			assert.InDelta(t, 0.1, req.Temperature, 1e-9)
			assert.True(t, strings.HasSuffix(req.Prompt, "LINKEDIN PROFILE TEXT:\n"+tt.expected))
		})
	}
}

func TestImportNeedsExactlyOneSource(t *testing.T) {
	p := &Pipeline{Model: &fakeModel{reply: record}, Logger: zerolog.Nop()}

	for _, req := range []ImportRequest{
		{},
		{PDF: "a.pdf", URL: "https://example.com"},
		{PDF: "a.pdf", URL: "https://example.com", Text: "a.txt"},
	} {
		_, err := p.Import(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, apperr.Usage, apperr.KindOf(err))
		assert.Equal(t, 64, apperr.ExitCode(err))
	}
}

func renderedTexts(t *testing.T, path string) (texts []string) {
	t.Helper()
	doc, err := document.Open(path)
	require.NoError(t, err)
	for _, p := range document.Paragraphs(doc) {
		texts = append(texts, p.Text())
	}
	return texts
}

func TestRender(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeTemplate(t, tmpDir)
	outDir := filepath.Join(tmpDir, "out")

	rec, err := schema.NewCoercer().Coerce(record)
	require.NoError(t, err)

	p := &Pipeline{Logger: zerolog.Nop()}
	path, err := p.Render(RenderRequest{
		Template: template,
		Persister: &persist.Persister{
			Dir:   outDir,
			Clock: fixedClock{t: time.Date(2025, time.July, 1, 9, 30, 0, 0, time.UTC)},
		},
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "CV_Customized_20250701-103000.docx"), path)
	assert.Equal(t, []string{"Platform engineer.", "- Go", "- Kubernetes", "\n", "End"}, renderedTexts(t, path))
}

func TestRenderFile(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeTemplate(t, tmpDir)
	dataPath := writeFile(t, tmpDir, "resume_data.json", `{"summary":"From file.","skills":["Rust"]}`)

	p := &Pipeline{Logger: zerolog.Nop()}
	path, err := p.RenderFile(RenderRequest{Template: template, Persister: &persist.Persister{Dir: tmpDir}}, dataPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"From file.", "- Rust", "\n", "End"}, renderedTexts(t, path))
}

func TestRenderErrors(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeTemplate(t, tmpDir)
	notDocx := writeFile(t, tmpDir, "broken.docx", "not a zip")

	p := &Pipeline{Logger: zerolog.Nop()}
	rec, err := schema.NewCoercer().Coerce(record)
	require.NoError(t, err)

	_, err = p.Render(RenderRequest{Template: filepath.Join(tmpDir, "missing.docx")}, rec)
	assert.Equal(t, apperr.InputRead, apperr.KindOf(err))

	_, err = p.Render(RenderRequest{Template: notDocx}, rec)
	assert.Equal(t, apperr.Render, apperr.KindOf(err))

	_, err = p.RenderFile(RenderRequest{Template: template}, filepath.Join(tmpDir, "missing.json"))
	assert.Equal(t, apperr.InputRead, apperr.KindOf(err))

	blocked := writeFile(t, tmpDir, "blocked", "a file, not a directory")
	_, err = p.Render(RenderRequest{Template: template, Persister: &persist.Persister{Dir: blocked}}, rec)
	assert.Equal(t, apperr.Persist, apperr.KindOf(err))
}

func TestRenderMissingFieldIsRenderError(t *testing.T) {
	tmpDir := t.TempDir()
	template := writeTemplate(t, tmpDir)

	rec, err := schema.NewCoercer(schema.WithValidation(schema.ValidateNone)).Coerce(`{"skills":[]}`)
	require.NoError(t, err)

	p := &Pipeline{Logger: zerolog.Nop()}
	_, err = p.Render(RenderRequest{Template: template, Persister: &persist.Persister{Dir: tmpDir}}, rec)
	require.Error(t, err)
	assert.Equal(t, apperr.Render, apperr.KindOf(err))
	assert.Equal(t, 7, apperr.ExitCode(err))
}

func TestGenerate(t *testing.T) {
	tmpDir := t.TempDir()
	promptPath := writeFile(t, tmpDir, "Prompt_Template.mkd", "Tailor this.")
	cv := writeFile(t, tmpDir, "fullcv.mkd", "cv")
	template := writeTemplate(t, tmpDir)
	jsonPath := filepath.Join(tmpDir, "tailored_resume.json")

	p := &Pipeline{
		Model:      &fakeModel{reply: `{"summary":"Tailored.","skills":["Go"],"work_experience":[],"early_career":[],"name":"Café"}`},
		JobFetcher: &fakeFetcher{pages: map[string]string{"https://jobs.example.com/1": "job"}},
		Logger:     zerolog.Nop(),
	}

	path, err := p.Generate(context.Background(),
		TailorRequest{JobURL: "https://jobs.example.com/1", PromptTemplate: promptPath, CV: cv},
		RenderRequest{Template: template, Persister: &persist.Persister{Dir: tmpDir}},
		jsonPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tailored.", "- Go", "\n", "End"}, renderedTexts(t, path))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"Tailored.","skills":["Go"],"work_experience":[],"early_career":[],"name":"Café"}`, string(data))
}

func TestNoModelConfigured(t *testing.T) {
	tmpDir := t.TempDir()
	text := writeFile(t, tmpDir, "profile.txt", "profile")

	p := &Pipeline{Logger: zerolog.Nop()}
	_, err := p.Import(context.Background(), ImportRequest{Text: text})
	require.Error(t, err)
	assert.Equal(t, apperr.Usage, apperr.KindOf(err))
}
