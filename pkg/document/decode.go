package document

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// parseTree reads an XML part into a generic tree. Tokens before the root element are
// returned as the prolog. Prefixes are kept literally, not resolved to namespace URIs.
func parseTree(data []byte) (prolog []xml.Token, root *Element, err error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	var stack []*Element
	for {
		var tok xml.Token
		tok, err = d.RawToken()
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			err = errors.Wrap(err, "failed to parse document XML")
			return prolog, root, err
		}

		var parent *Element
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: cloneAttrs(t.Attr)}
			if parent == nil {
				if root != nil {
					err = errors.New("document XML has more than one root element")
					return prolog, root, err
				}
				root = el
			} else {
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if parent == nil || parent.Name != t.Name {
				err = errors.Errorf("unexpected closing tag %s", qualifiedName(t.Name))
				return prolog, root, err
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if parent != nil {
				parent.Children = append(parent.Children, CharData(t))
			} else if root == nil {
				prolog = append(prolog, t.Copy())
			}

		case xml.Comment:
			if parent != nil {
				parent.Children = append(parent.Children, Comment(t))
			} else if root == nil {
				prolog = append(prolog, t.Copy())
			}

		case xml.ProcInst:
			if root == nil {
				prolog = append(prolog, t.Copy())
			}

		case xml.Directive:
			if root == nil {
				prolog = append(prolog, t.Copy())
			}
		}
	}

	if len(stack) > 0 {
		err = errors.Errorf("document XML ends inside %s", qualifiedName(stack[len(stack)-1].Name))
		return prolog, root, err
	}
	if root == nil {
		err = errors.New("document XML has no root element")
		return prolog, root, err
	}

	return prolog, root, err
}

func decodeBlocks(parent *Element) (blocks []Block) {
	for _, n := range parent.Children {
		el, ok := n.(*Element)
		if !ok {
			continue
		}
		blocks = append(blocks, decodeBlock(el))
	}
	return blocks
}

func decodeBlock(el *Element) (b Block) {
	switch {
	case el.Is(W, "p"):
		b = decodeParagraph(el)
	case el.Is(W, "tbl"):
		b = decodeTable(el)
	default:
		b = &RawBlock{Elem: el}
	}
	return b
}

func decodeParagraph(el *Element) (p *Paragraph) {
	p = &Paragraph{Attr: el.Attr}
	for _, n := range el.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		switch {
		case child.Is(W, "pPr"):
			p.Props = child
		case child.Is(W, "r"):
			p.Content = append(p.Content, decodeRun(child))
		default:
			p.Content = append(p.Content, &RawInline{Elem: child})
		}
	}
	return p
}

func decodeRun(el *Element) (r *Run) {
	r = &Run{Attr: el.Attr}
	for _, n := range el.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		switch {
		case child.Is(W, "rPr"):
			r.Props = child
		case child.Is(W, "t"):
			r.Items = append(r.Items, &Text{Value: child.Text()})
		case child.Is(W, "tab"):
			r.Items = append(r.Items, &Tab{})
		case child.Is(W, "br"):
			kind, _ := child.AttrValue(W, "type")
			clearAttr, _ := child.AttrValue(W, "clear")
			r.Items = append(r.Items, &Break{Type: kind, Clear: clearAttr})
		default:
			r.Items = append(r.Items, &RawItem{Elem: child})
		}
	}
	return r
}

func decodeTable(el *Element) (t *Table) {
	t = &Table{Attr: el.Attr}
	var pending []*Element
	for _, n := range el.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		switch {
		case child.Is(W, "tblPr"):
			t.Props = child
		case child.Is(W, "tblGrid"):
			t.Grid = child
		case child.Is(W, "tr"):
			row := decodeRow(child)
			row.Leading = pending
			pending = nil
			t.Rows = append(t.Rows, row)
		default:
			pending = append(pending, child)
		}
	}
	t.Extra = pending
	return t
}

func decodeRow(el *Element) (r *Row) {
	r = &Row{Attr: el.Attr}
	var pending []*Element
	for _, n := range el.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		switch {
		case child.Is(W, "tblPrEx"):
			r.PropsEx = child
		case child.Is(W, "trPr"):
			r.Props = child
		case child.Is(W, "tc"):
			cell := decodeCell(child)
			cell.Leading = pending
			pending = nil
			r.Cells = append(r.Cells, cell)
		default:
			pending = append(pending, child)
		}
	}
	r.Extra = pending
	return r
}

func decodeCell(el *Element) (c *Cell) {
	c = &Cell{Attr: el.Attr}
	for _, n := range el.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		if child.Is(W, "tcPr") {
			c.Props = child
			continue
		}
		c.Content = append(c.Content, decodeBlock(child))
	}
	return c
}
