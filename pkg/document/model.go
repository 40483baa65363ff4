package document

import (
	"encoding/xml"
	"strings"
)

// Block is a body-level element: *Paragraph, *Table or *RawBlock.
type Block interface {
	block()
	cloneBlock() Block
}

// Inline is a paragraph child: *Run or *RawInline.
type Inline interface {
	inline()
	cloneInline() Inline
}

// RunItem is a run child: *Text, *Tab, *Break or *RawItem.
type RunItem interface {
	runItem()
	cloneItem() RunItem
}

// Container owns an ordered list of blocks. The document body and table cells are containers.
type Container interface {
	Blocks() []Block
	SetBlocks(blocks []Block)
}

// Paragraph is a w:p element.
type Paragraph struct {
	Attr    []xml.Attr
	Props   *Element // w:pPr
	Content []Inline
}

// Table is a w:tbl element. Other children that come before a row are kept in that row's
// Leading; Extra holds the ones after the last row.
type Table struct {
	Attr  []xml.Attr
	Props *Element // w:tblPr
	Grid  *Element // w:tblGrid
	Rows  []*Row
	Extra []*Element
}

// Row is a w:tr element. Leading holds the table children, such as bookmarks, written
// just before it. Other row children that come before a cell are kept in that cell's Leading.
type Row struct {
	Attr    []xml.Attr
	Leading []*Element
	PropsEx *Element // w:tblPrEx
	Props   *Element // w:trPr
	Cells   []*Cell
	Extra   []*Element
}

// Cell is a w:tc element.
type Cell struct {
	Attr    []xml.Attr
	Leading []*Element
	Props   *Element // w:tcPr
	Content []Block
}

// RawBlock is a body-level element the model does not interpret, such as the final w:sectPr.
type RawBlock struct {
	Elem *Element
}

// Run is a w:r element.
type Run struct {
	Attr  []xml.Attr
	Props *Element // w:rPr
	Items []RunItem
}

// RawInline is a paragraph child the model does not interpret, such as a hyperlink or bookmark.
type RawInline struct {
	Elem *Element
}

// Text is a w:t element.
type Text struct {
	Value string
}

// Tab is a w:tab element.
type Tab struct{}

// Break is a w:br element. Type is "page", "column", or empty for a line break.
type Break struct {
	Type  string
	Clear string
}

// RawItem is a run child the model does not interpret, such as a drawing or field character.
type RawItem struct {
	Elem *Element
}

func (*Paragraph) block() {}
func (*Table) block()     {}
func (*RawBlock) block()  {}

func (*Run) inline()       {}
func (*RawInline) inline() {}

func (*Text) runItem()    {}
func (*Tab) runItem()     {}
func (*Break) runItem()   {}
func (*RawItem) runItem() {}

// Blocks returns the cell's content.
func (c *Cell) Blocks() (blocks []Block) {
	blocks = c.Content
	return blocks
}

// SetBlocks replaces the cell's content.
func (c *Cell) SetBlocks(blocks []Block) {
	c.Content = blocks
}

// Text returns the visible text of the paragraph.
func (p *Paragraph) Text() (text string) {
	var b strings.Builder
	for _, in := range p.Content {
		switch v := in.(type) {
		case *Run:
			b.WriteString(v.Text())
		case *RawInline:
			b.WriteString(v.Elem.Text())
		}
	}
	text = b.String()
	return text
}

// HasSectionBreak reports whether the paragraph carries w:pPr/w:sectPr.
func (p *Paragraph) HasSectionBreak() (ok bool) {
	ok = p.Props.Child(W, "sectPr") != nil
	return ok
}

// HasPageOrColumnBreak reports whether any w:br in the paragraph has type page or column.
func (p *Paragraph) HasPageOrColumnBreak() (ok bool) {
	for _, in := range p.Content {
		switch v := in.(type) {
		case *Run:
			for _, item := range v.Items {
				switch it := item.(type) {
				case *Break:
					if isStructuralBreak(it.Type) {
						ok = true
						return ok
					}
				case *RawItem:
					if findStructuralBreak(it.Elem) {
						ok = true
						return ok
					}
				}
			}
		case *RawInline:
			if findStructuralBreak(v.Elem) {
				ok = true
				return ok
			}
		}
	}
	return ok
}

func isStructuralBreak(kind string) (ok bool) {
	ok = kind == "page" || kind == "column"
	return ok
}

func findStructuralBreak(e *Element) (ok bool) {
	found := e.Find(func(el *Element) bool {
		if !el.Is(W, "br") {
			return false
		}
		kind, _ := el.AttrValue(W, "type")
		return isStructuralBreak(kind)
	})
	ok = found != nil
	return ok
}

// Text returns the visible text of the run.
func (r *Run) Text() (text string) {
	var b strings.Builder
	for _, item := range r.Items {
		switch v := item.(type) {
		case *Text:
			b.WriteString(v.Value)
		case *Tab:
			b.WriteByte('\t')
		case *Break:
			b.WriteByte('\n')
		}
	}
	text = b.String()
	return text
}

// CloneBlocks deep-copies a block list.
func CloneBlocks(blocks []Block) (c []Block) {
	if blocks == nil {
		return c
	}
	c = make([]Block, len(blocks))
	for i, b := range blocks {
		c[i] = b.cloneBlock()
	}
	return c
}

// Clone returns a deep copy of the paragraph.
func (p *Paragraph) Clone() (c *Paragraph) {
	c = &Paragraph{Attr: cloneAttrs(p.Attr), Props: p.Props.Clone()}
	if p.Content != nil {
		c.Content = make([]Inline, len(p.Content))
		for i, in := range p.Content {
			c.Content[i] = in.cloneInline()
		}
	}
	return c
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() (c *Table) {
	c = &Table{Attr: cloneAttrs(t.Attr), Props: t.Props.Clone(), Grid: t.Grid.Clone(), Extra: cloneElements(t.Extra)}
	if t.Rows != nil {
		c.Rows = make([]*Row, len(t.Rows))
		for i, row := range t.Rows {
			c.Rows[i] = row.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() (c *Row) {
	c = &Row{Attr: cloneAttrs(r.Attr), Leading: cloneElements(r.Leading), PropsEx: r.PropsEx.Clone(), Props: r.Props.Clone(), Extra: cloneElements(r.Extra)}
	if r.Cells != nil {
		c.Cells = make([]*Cell, len(r.Cells))
		for i, cell := range r.Cells {
			c.Cells[i] = cell.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() (cc *Cell) {
	cc = &Cell{Attr: cloneAttrs(c.Attr), Leading: cloneElements(c.Leading), Props: c.Props.Clone(), Content: CloneBlocks(c.Content)}
	return cc
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() (c *Run) {
	c = &Run{Attr: cloneAttrs(r.Attr), Props: r.Props.Clone()}
	if r.Items != nil {
		c.Items = make([]RunItem, len(r.Items))
		for i, item := range r.Items {
			c.Items[i] = item.cloneItem()
		}
	}
	return c
}

// CloneItem deep-copies a run item.
func CloneItem(item RunItem) (c RunItem) {
	c = item.cloneItem()
	return c
}

// CloneInline deep-copies a paragraph child.
func CloneInline(in Inline) (c Inline) {
	c = in.cloneInline()
	return c
}

func (p *Paragraph) cloneBlock() Block { return p.Clone() }
func (t *Table) cloneBlock() Block     { return t.Clone() }
func (b *RawBlock) cloneBlock() Block  { return &RawBlock{Elem: b.Elem.Clone()} }

func (r *Run) cloneInline() Inline       { return r.Clone() }
func (r *RawInline) cloneInline() Inline { return &RawInline{Elem: r.Elem.Clone()} }

func (t *Text) cloneItem() RunItem    { return &Text{Value: t.Value} }
func (*Tab) cloneItem() RunItem       { return &Tab{} }
func (b *Break) cloneItem() RunItem   { return &Break{Type: b.Type, Clear: b.Clear} }
func (r *RawItem) cloneItem() RunItem { return &RawItem{Elem: r.Elem.Clone()} }

func cloneElements(elems []*Element) (c []*Element) {
	if elems == nil {
		return c
	}
	c = make([]*Element, len(elems))
	for i, e := range elems {
		c[i] = e.Clone()
	}
	return c
}
