// Package pipeline wires the sources, the model, the coercer, the renderer, the cleaner and
// the persister into the four commands.
package pipeline

import (
	"context"
	"os"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/nikogura/cv-customizer/pkg/cleanup"
	"github.com/nikogura/cv-customizer/pkg/document"
	"github.com/nikogura/cv-customizer/pkg/llm"
	"github.com/nikogura/cv-customizer/pkg/persist"
	"github.com/nikogura/cv-customizer/pkg/prompt"
	"github.com/nikogura/cv-customizer/pkg/render"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/nikogura/cv-customizer/pkg/source"
	"github.com/rs/zerolog"
)

// Fetcher reads a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (content string, err error)
}

// Extractor reads the text of a PDF.
type Extractor interface {
	Extract(ctx context.Context, path string) (text string, err error)
}

// Pipeline holds the collaborators shared by every command.
type Pipeline struct {
	Model llm.Completer
	// JobFetcher reads job spec URLs.
	JobFetcher Fetcher
	// ProfileFetcher reads CV and profile URLs.
	ProfileFetcher Fetcher
	PDF            Extractor
	Coercer        *schema.Coercer
	Logger         zerolog.Logger
	// BeforeModel and AfterModel bracket every model call, for progress display.
	BeforeModel func(msg string)
	AfterModel  func()
}

// TailorRequest describes one tailoring run.
type TailorRequest struct {
	JobURL         string
	PromptTemplate string
	// CV is a file path, a URL, or a PDF path.
	CV    string
	Model string
}

// ImportRequest names exactly one profile source.
type ImportRequest struct {
	PDF   string
	URL   string
	Text  string
	Model string
}

// Validate checks that exactly one source is set.
func (r ImportRequest) Validate() (err error) {
	given := 0
	for _, s := range []string{r.PDF, r.URL, r.Text} {
		if s != "" {
			given++
		}
	}
	if given != 1 {
		err = apperr.Newf(apperr.Usage, "exactly one of --pdf, --url or --text is required")
	}
	return err
}

// RenderRequest describes one document render.
type RenderRequest struct {
	Template  string
	Persister *persist.Persister
}

func (p *Pipeline) coercer() (c *schema.Coercer) {
	c = p.Coercer
	if c == nil {
		c = schema.NewCoercer()
	}
	return c
}

func (p *Pipeline) profileFetcher() (f Fetcher) {
	f = p.ProfileFetcher
	if f == nil {
		f = source.NewFetcher(source.ProfileTimeout)
	}
	return f
}

func (p *Pipeline) pdf() (e Extractor) {
	e = p.PDF
	if e == nil {
		e = &source.PDFExtractor{Logger: p.Logger}
	}
	return e
}

// loadCV reads a CV from a URL, a PDF, or a text file.
func (p *Pipeline) loadCV(ctx context.Context, input string) (content string, err error) {
	switch {
	case source.IsURL(input):
		content, err = p.profileFetcher().Fetch(ctx, input)
	case source.IsPDF(input):
		content, err = p.pdf().Extract(ctx, input)
	default:
		content, err = source.ReadFile(input)
	}
	return content, err
}

func (p *Pipeline) complete(ctx context.Context, req llm.Request, msg string) (text string, err error) {
	if p.Model == nil {
		err = apperr.Newf(apperr.Usage, "no model client configured")
		return text, err
	}

	if p.BeforeModel != nil {
		p.BeforeModel(msg)
	}
	text, err = p.Model.Complete(ctx, req)
	if p.AfterModel != nil {
		p.AfterModel()
	}

	return text, err
}

func (p *Pipeline) coerce(raw string) (rec schema.Record, err error) {
	var repair string
	rec, repair, err = p.coercer().CoerceWithRepair(raw)
	if err != nil {
		err = apperr.Wrap(apperr.Schema, err, "model did not return a valid resume record")
		return rec, err
	}

	if repair != "" {
		p.Logger.Debug().Str("repair", repair).Msg("model output repaired")
	}
	p.Logger.Info().
		Int("roles", len(rec.WorkExperience)).
		Int("skills", len(rec.Skills)).
		Msg("resume record parsed")

	return rec, err
}

// Tailor fetches the job spec, merges it with the CV into the prompt template, and asks
// the model for a tailored resume record.
func (p *Pipeline) Tailor(ctx context.Context, req TailorRequest) (rec schema.Record, err error) {
	var template string
	template, err = source.ReadFile(req.PromptTemplate)
	if err != nil {
		return rec, err
	}

	var cv string
	cv, err = p.loadCV(ctx, req.CV)
	if err != nil {
		return rec, err
	}

	fetcher := p.JobFetcher
	if fetcher == nil {
		fetcher = source.NewFetcher(source.JobSpecTimeout)
	}

	var jobSpec string
	jobSpec, err = fetcher.Fetch(ctx, req.JobURL)
	if err != nil {
		return rec, err
	}
	p.Logger.Debug().Int("job_spec_bytes", len(jobSpec)).Int("cv_bytes", len(cv)).Msg("inputs loaded")

	text, mode := prompt.AssembleMode(template, jobSpec, cv)
	if mode == prompt.ModeAppend {
		p.Logger.Debug().Msg("prompt template has no input markers, appending inputs")
	}
	p.Logger.Info().Str("mode", string(mode)).Int("prompt_bytes", len(text)).Msg("prompt assembled")

	var raw string
	raw, err = p.complete(ctx, llm.Request{
		System:      prompt.TailorSystem,
		Prompt:      text,
		Model:       req.Model,
		Temperature: llm.TailorTemperature,
		MaxTokens:   llm.MaxTokens,
	}, "Tailoring CV")
	if err != nil {
		return rec, err
	}

	rec, err = p.coerce(raw)
	return rec, err
}

// Import normalizes a LinkedIn export or profile text into a resume record.
func (p *Pipeline) Import(ctx context.Context, req ImportRequest) (rec schema.Record, err error) {
	err = req.Validate()
	if err != nil {
		return rec, err
	}

	var profile string
	switch {
	case req.PDF != "":
		profile, err = p.pdf().Extract(ctx, req.PDF)
	case req.URL != "":
		profile, err = p.profileFetcher().Fetch(ctx, req.URL)
	default:
		profile, err = source.ReadFile(req.Text)
	}
	if err != nil {
		return rec, err
	}
	p.Logger.Debug().Int("profile_bytes", len(profile)).Msg("profile loaded")

	var raw string
	raw, err = p.complete(ctx, llm.Request{
		System:      prompt.NormalizeSystem,
		Prompt:      prompt.Normalize(profile),
		Model:       req.Model,
		Temperature: llm.ImportTemperature,
		MaxTokens:   llm.MaxTokens,
	}, "Normalizing profile")
	if err != nil {
		return rec, err
	}

	rec, err = p.coerce(raw)
	return rec, err
}

// Render binds rec to the DOCX template, removes blank paragraphs, and persists the result.
func (p *Pipeline) Render(req RenderRequest, rec schema.Record) (path string, err error) {
	var data []byte
	data, err = os.ReadFile(req.Template)
	if err != nil {
		err = apperr.Wrapf(apperr.InputRead, err, "failed to read document template: %s", req.Template)
		return path, err
	}

	var tpl *document.Document
	tpl, err = document.Read(data)
	if err != nil {
		err = apperr.Wrapf(apperr.Render, err, "failed to load document template: %s", req.Template)
		return path, err
	}

	var ctx map[string]interface{}
	ctx, err = rec.Context()
	if err != nil {
		err = apperr.New(apperr.Render, err)
		return path, err
	}

	var doc *document.Document
	doc, err = render.Render(tpl, ctx)
	if err != nil {
		err = apperr.Wrapf(apperr.Render, err, "failed to render %s", req.Template)
		return path, err
	}

	removed := cleanup.Clean(doc)
	p.Logger.Info().Int("removed", removed).Msg("blank paragraphs removed")

	persister := req.Persister
	if persister == nil {
		persister = &persist.Persister{Logger: p.Logger}
	}

	path, err = persister.Persist(doc)
	if err != nil {
		err = apperr.New(apperr.Persist, err)
		return path, err
	}

	p.Logger.Info().Str("path", path).Msg("document saved")
	return path, err
}

// RenderFile is Render with the record read from a JSON file.
func (p *Pipeline) RenderFile(req RenderRequest, dataPath string) (path string, err error) {
	var rec schema.Record
	rec, err = schema.Load(dataPath, schema.NewCoercer(schema.WithRepairs(), schema.WithValidation(schema.ValidateTypes)))
	if err != nil {
		return path, err
	}

	path, err = p.Render(req, rec)
	return path, err
}

// Generate tailors a record for the job and renders it in one run. When jsonPath is set the
// intermediate record is written there too.
func (p *Pipeline) Generate(ctx context.Context, tailor TailorRequest, req RenderRequest, jsonPath string) (path string, err error) {
	var rec schema.Record
	rec, err = p.Tailor(ctx, tailor)
	if err != nil {
		return path, err
	}

	if jsonPath != "" {
		err = WriteRecord(jsonPath, rec)
		if err != nil {
			return path, err
		}
		p.Logger.Info().Str("path", jsonPath).Msg("resume record saved")
	}

	path, err = p.Render(req, rec)
	return path, err
}

// WriteRecord writes rec as compact JSON.
func WriteRecord(path string, rec schema.Record) (err error) {
	var data []byte
	data, err = rec.JSON()
	if err != nil {
		err = apperr.New(apperr.Persist, err)
		return err
	}

	err = persist.WriteJSON(path, data)
	if err != nil {
		err = apperr.New(apperr.Persist, err)
		return err
	}

	return err
}
