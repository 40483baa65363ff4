package render

import (
	"strconv"
	"strings"

	"github.com/nikogura/cv-customizer/pkg/document"
)

// rebuilder turns executed template output back into blocks. Every node is a fresh copy of
// the template node its marker names, so repeated loop bodies never share properties.
type rebuilder struct {
	b *builder

	containers []*[]document.Block
	tables     []*document.Table
	rows       []*document.Row

	para *document.Paragraph
	run  *document.Run
	text *document.Text
}

func (b *builder) rebuild(out string) (body []document.Block, err error) {
	r := &rebuilder{b: b, containers: []*[]document.Block{&body}}

	for out != "" {
		i := strings.IndexByte(out, markOpen)
		if i < 0 {
			r.literal(out)
			break
		}
		r.literal(out[:i])

		j := strings.IndexByte(out[i:], markClose)
		if j < 0 {
			err = structureError()
			return body, err
		}
		marker := out[i+1 : i+j]
		out = out[i+j+1:]

		if marker == "" {
			err = structureError()
			return body, err
		}
		id := -1
		if len(marker) > 1 {
			id, err = strconv.Atoi(marker[1:])
			if err != nil {
				err = structureError()
				return body, err
			}
		}

		err = r.apply(marker[0], id)
		if err != nil {
			return body, err
		}
	}

	if len(r.containers) != 1 || len(r.tables) != 0 || len(r.rows) != 0 || r.para != nil {
		err = structureError()
		return body, err
	}

	return body, err
}

func (r *rebuilder) literal(s string) {
	if r.text != nil {
		r.text.Value += s
	}
}

func (r *rebuilder) appendBlock(block document.Block) {
	top := r.containers[len(r.containers)-1]
	*top = append(*top, block)
}

//nolint:gocognit,cyclop // one case per marker code
func (r *rebuilder) apply(code byte, id int) (err error) {
	r.text = nil

	switch code {
	case codeParagraph:
		if r.para != nil || !r.inBlockContext() || !r.valid(id, len(r.b.paragraphs)) {
			err = structureError()
			return err
		}
		tpl := r.b.paragraphs[id]
		r.para = &document.Paragraph{Attr: tpl.Attr, Props: tpl.Props.Clone()}
		r.appendBlock(r.para)

	case codeParagraphEnd:
		if r.para == nil || r.run != nil {
			err = structureError()
			return err
		}
		r.para = nil

	case codeRun:
		if r.para == nil || r.run != nil || !r.valid(id, len(r.b.runs)) {
			err = structureError()
			return err
		}
		tpl := r.b.runs[id]
		r.run = &document.Run{Attr: tpl.Attr, Props: tpl.Props.Clone()}
		r.para.Content = append(r.para.Content, r.run)

	case codeRunEnd:
		if r.run == nil {
			err = structureError()
			return err
		}
		r.run = nil

	case codeText:
		if r.run == nil {
			err = structureError()
			return err
		}
		r.text = &document.Text{}
		r.run.Items = append(r.run.Items, r.text)

	case codeItem:
		if r.run == nil || !r.valid(id, len(r.b.items)) {
			err = structureError()
			return err
		}
		r.run.Items = append(r.run.Items, document.CloneItem(r.b.items[id]))

	case codeInline:
		if r.para == nil || r.run != nil || !r.valid(id, len(r.b.inlines)) {
			err = structureError()
			return err
		}
		r.para.Content = append(r.para.Content, document.CloneInline(r.b.inlines[id]))

	case codeTable:
		if r.para != nil || !r.inBlockContext() || !r.valid(id, len(r.b.tables)) {
			err = structureError()
			return err
		}
		tpl := r.b.tables[id]
		t := &document.Table{Attr: tpl.Attr, Props: tpl.Props.Clone(), Grid: tpl.Grid.Clone()}
		for _, extra := range tpl.Extra {
			t.Extra = append(t.Extra, extra.Clone())
		}
		r.appendBlock(t)
		r.tables = append(r.tables, t)

	case codeTableEnd:
		if len(r.tables) == 0 || r.openRowInTable() {
			err = structureError()
			return err
		}
		r.tables = r.tables[:len(r.tables)-1]

	case codeRow:
		if len(r.tables) == 0 || r.openRowInTable() || !r.valid(id, len(r.b.rows)) {
			err = structureError()
			return err
		}
		tpl := r.b.rows[id]
		row := &document.Row{Attr: tpl.Attr, Leading: cloneAll(tpl.Leading), PropsEx: tpl.PropsEx.Clone(), Props: tpl.Props.Clone()}
		for _, extra := range tpl.Extra {
			row.Extra = append(row.Extra, extra.Clone())
		}
		table := r.tables[len(r.tables)-1]
		table.Rows = append(table.Rows, row)
		r.rows = append(r.rows, row)

	case codeRowEnd:
		if !r.openRowInTable() || r.openCellInRow() {
			err = structureError()
			return err
		}
		r.rows = r.rows[:len(r.rows)-1]

	case codeCell:
		if !r.openRowInTable() || r.openCellInRow() || r.para != nil || !r.valid(id, len(r.b.cells)) {
			err = structureError()
			return err
		}
		tpl := r.b.cells[id]
		cell := &document.Cell{Attr: tpl.Attr, Leading: cloneAll(tpl.Leading), Props: tpl.Props.Clone()}
		row := r.rows[len(r.rows)-1]
		row.Cells = append(row.Cells, cell)
		r.containers = append(r.containers, &cell.Content)

	case codeCellEnd:
		if !r.openCellInRow() || r.para != nil {
			err = structureError()
			return err
		}
		r.containers = r.containers[:len(r.containers)-1]

	case codeRaw:
		if r.para != nil || !r.inBlockContext() || !r.valid(id, len(r.b.raws)) {
			err = structureError()
			return err
		}
		r.appendBlock(&document.RawBlock{Elem: r.b.raws[id].Elem.Clone()})

	default:
		err = structureError()
	}

	return err
}

func cloneAll(elems []*document.Element) (c []*document.Element) {
	for _, el := range elems {
		c = append(c, el.Clone())
	}
	return c
}

func (r *rebuilder) valid(id, n int) (ok bool) {
	ok = id >= 0 && id < n
	return ok
}

// Nesting is always table, row, cell, table, ... so the stack depths alone say where the
// rebuilder is. The body container is always at the bottom of containers.

// inBlockContext reports whether blocks may be appended: at body level or inside an open cell.
func (r *rebuilder) inBlockContext() (ok bool) {
	ok = len(r.rows) == len(r.tables) && len(r.containers)-1 == len(r.tables)
	return ok
}

func (r *rebuilder) openRowInTable() (open bool) {
	open = len(r.rows) == len(r.tables) && len(r.rows) > 0
	return open
}

func (r *rebuilder) openCellInRow() (open bool) {
	open = len(r.containers)-1 == len(r.rows) && len(r.rows) > 0
	return open
}

func structureError() (err error) {
	err = syntaxErrorf("template tags break the document structure; a block must open and close within the same paragraph, cell or row level")
	return err
}
