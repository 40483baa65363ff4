// Package render binds resume data to a DOCX template written with docxtpl-style Jinja
// tags. The body is flattened into a single text/template source in which each document
// node is a control-character marker, so loops and conditionals may span paragraphs and
// table rows. The executed output is parsed back into a document tree.
package render

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/nikogura/cv-customizer/pkg/document"
	"github.com/pkg/errors"
)

const (
	markOpen  = '\x02'
	markClose = '\x03'
)

const (
	codeParagraph    = 'P'
	codeParagraphEnd = 'p'
	codeRun          = 'R'
	codeRunEnd       = 'r'
	codeText         = 'X'
	codeItem         = 'I'
	codeInline       = 'N'
	codeTable        = 'T'
	codeTableEnd     = 't'
	codeRow          = 'W'
	codeRowEnd       = 'w'
	codeCell         = 'C'
	codeCellEnd      = 'c'
	codeRaw          = 'B'
)

// Render executes the template document against data and returns a new document. The
// template is not modified.
func Render(tpl *document.Document, data map[string]interface{}) (doc *document.Document, err error) {
	b := &builder{}

	err = b.blocks(document.CloneBlocks(tpl.Body))
	if err != nil {
		return doc, err
	}

	err = b.tr.finish()
	if err != nil {
		return doc, err
	}

	var t *template.Template
	t, err = template.New("document").Funcs(templateFuncs()).Option("missingkey=error").Parse(b.src.String())
	if err != nil {
		err = &Error{Kind: KindSyntax, Err: errors.Wrap(err, "failed to compile template")}
		return doc, err
	}

	var out strings.Builder
	err = t.Execute(&out, data)
	if err != nil {
		err = &Error{Kind: KindTemplateMismatch, Err: err}
		return doc, err
	}

	var body []document.Block
	body, err = b.rebuild(out.String())
	if err != nil {
		return doc, err
	}

	doc = tpl.WithBody(body)
	return doc, err
}

// builder writes the template source and remembers the node behind each marker id.
type builder struct {
	src strings.Builder
	tr  translator

	paragraphs []*document.Paragraph
	runs       []*document.Run
	items      []document.RunItem
	inlines    []*document.RawInline
	tables     []*document.Table
	rows       []*document.Row
	cells      []*document.Cell
	raws       []*document.RawBlock
}

func (b *builder) mark(code byte, id int) {
	b.src.WriteByte(markOpen)
	b.src.WriteByte(code)
	if id >= 0 {
		b.src.WriteString(strconv.Itoa(id))
	}
	b.src.WriteByte(markClose)
}

func (b *builder) blocks(blocks []document.Block) (err error) {
	for _, block := range blocks {
		switch v := block.(type) {
		case *document.Paragraph:
			err = b.paragraph(v)
		case *document.Table:
			err = b.table(v)
		case *document.RawBlock:
			b.raws = append(b.raws, v)
			b.mark(codeRaw, len(b.raws)-1)
		}
		if err != nil {
			return err
		}
	}
	return err
}

func (b *builder) paragraph(p *document.Paragraph) (err error) {
	mergeSplitTags(p)
	text := templateText(p)

	var found bool
	found, err = hasControlPrefix(text, "p")
	if err != nil {
		return err
	}
	if found {
		var actions string
		actions, err = b.tr.statements(text, "p")
		b.src.WriteString(actions)
		return err
	}

	if found, err = hasControlPrefix(text, "tr"); err != nil || found {
		if found {
			err = syntaxErrorf("{%%tr %%} tag outside a table row")
		}
		return err
	}

	var only bool
	only, err = controlOnly(text)
	if err != nil {
		return err
	}
	if only {
		// A control paragraph that carries a break keeps its breaks unconditionally; its
		// tags take effect after it.
		if p.HasSectionBreak() || p.HasPageOrColumnBreak() {
			err = b.emitParagraph(p, false)
			if err != nil {
				return err
			}
		}
		var actions string
		actions, err = b.tr.statements(text, "")
		b.src.WriteString(actions)
		return err
	}

	err = b.emitParagraph(p, true)
	return err
}

func (b *builder) emitParagraph(p *document.Paragraph, withText bool) (err error) {
	b.paragraphs = append(b.paragraphs, p)
	b.mark(codeParagraph, len(b.paragraphs)-1)

	for _, in := range p.Content {
		switch v := in.(type) {
		case *document.Run:
			err = b.run(v, withText)
			if err != nil {
				return err
			}
		case *document.RawInline:
			b.inlines = append(b.inlines, v)
			b.mark(codeInline, len(b.inlines)-1)
		}
	}

	b.mark(codeParagraphEnd, -1)
	return err
}

func (b *builder) run(r *document.Run, withText bool) (err error) {
	b.runs = append(b.runs, r)
	b.mark(codeRun, len(b.runs)-1)

	for _, item := range r.Items {
		text, ok := item.(*document.Text)
		if !ok {
			b.items = append(b.items, item)
			b.mark(codeItem, len(b.items)-1)
			continue
		}
		if !withText {
			continue
		}

		var translated string
		translated, err = b.tr.text(text.Value)
		if err != nil {
			return err
		}
		b.mark(codeText, -1)
		b.src.WriteString(translated)
	}

	b.mark(codeRunEnd, -1)
	return err
}

func (b *builder) table(t *document.Table) (err error) {
	b.tables = append(b.tables, t)
	b.mark(codeTable, len(b.tables)-1)

	for _, row := range t.Rows {
		text := rowText(row)

		var found bool
		found, err = hasControlPrefix(text, "tr")
		if err != nil {
			return err
		}
		if found {
			var actions string
			actions, err = b.tr.statements(text, "tr")
			if err != nil {
				return err
			}
			b.src.WriteString(actions)
			continue
		}

		b.rows = append(b.rows, row)
		b.mark(codeRow, len(b.rows)-1)
		for _, cell := range row.Cells {
			b.cells = append(b.cells, cell)
			b.mark(codeCell, len(b.cells)-1)
			err = b.blocks(cell.Content)
			if err != nil {
				return err
			}
			b.mark(codeCellEnd, -1)
		}
		b.mark(codeRowEnd, -1)
	}

	b.mark(codeTableEnd, -1)
	return err
}

// templateText joins the text items of a paragraph's runs.
func templateText(p *document.Paragraph) (text string) {
	var sb strings.Builder
	for _, in := range p.Content {
		r, ok := in.(*document.Run)
		if !ok {
			continue
		}
		for _, item := range r.Items {
			if t, ok := item.(*document.Text); ok {
				sb.WriteString(t.Value)
			}
		}
	}
	text = sb.String()
	return text
}

// rowText joins the text of the paragraphs directly inside a row's cells.
func rowText(row *document.Row) (text string) {
	var parts []string
	for _, cell := range row.Cells {
		for _, block := range cell.Content {
			if p, ok := block.(*document.Paragraph); ok {
				parts = append(parts, templateText(p))
			}
		}
	}
	text = strings.Join(parts, "\n")
	return text
}

// mergeSplitTags moves the whole paragraph text into its first text item when Word has
// split a tag across text items. The merged text takes the first run's formatting.
func mergeSplitTags(p *document.Paragraph) {
	var texts []*document.Text
	split := false
	for _, in := range p.Content {
		r, ok := in.(*document.Run)
		if !ok {
			continue
		}
		for _, item := range r.Items {
			if t, ok := item.(*document.Text); ok {
				texts = append(texts, t)
				if !balanced(t.Value) {
					split = true
				}
			}
		}
	}
	if !split {
		return
	}

	var sb strings.Builder
	drop := make(map[*document.Text]bool, len(texts))
	for i, t := range texts {
		sb.WriteString(t.Value)
		if i > 0 {
			drop[t] = true
		}
	}
	texts[0].Value = sb.String()

	for _, in := range p.Content {
		r, ok := in.(*document.Run)
		if !ok {
			continue
		}
		kept := r.Items[:0]
		for _, item := range r.Items {
			if t, ok := item.(*document.Text); ok && drop[t] {
				continue
			}
			kept = append(kept, item)
		}
		r.Items = kept
	}
}

func balanced(s string) (ok bool) {
	ok = strings.Count(s, "{{") == strings.Count(s, "}}") &&
		strings.Count(s, "{%") == strings.Count(s, "%}") &&
		strings.Count(s, "{#") == strings.Count(s, "#}")
	return ok
}
