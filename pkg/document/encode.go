package document

import (
	"bytes"
	"encoding/xml"
	"strings"
)

func encodeBlocks(blocks []Block, cell bool) (nodes []Node) {
	for _, b := range blocks {
		nodes = append(nodes, encodeBlock(b))
	}
	// A cell must end with a paragraph.
	if cell {
		if len(blocks) == 0 {
			nodes = append(nodes, &Element{Name: wName("p")})
		} else if _, ok := blocks[len(blocks)-1].(*Paragraph); !ok {
			nodes = append(nodes, &Element{Name: wName("p")})
		}
	}
	return nodes
}

func encodeBlock(b Block) (el *Element) {
	switch v := b.(type) {
	case *Paragraph:
		el = encodeParagraph(v)
	case *Table:
		el = encodeTable(v)
	case *RawBlock:
		el = v.Elem
	}
	return el
}

func encodeParagraph(p *Paragraph) (el *Element) {
	el = &Element{Name: wName("p"), Attr: p.Attr}
	appendElement(el, p.Props)
	for _, in := range p.Content {
		switch v := in.(type) {
		case *Run:
			el.Children = append(el.Children, encodeRun(v))
		case *RawInline:
			appendElement(el, v.Elem)
		}
	}
	return el
}

func encodeRun(r *Run) (el *Element) {
	el = &Element{Name: wName("r"), Attr: r.Attr}
	appendElement(el, r.Props)
	for _, item := range r.Items {
		switch v := item.(type) {
		case *Text:
			t := &Element{Name: wName("t")}
			if strings.TrimSpace(v.Value) != v.Value {
				t.Attr = []xml.Attr{{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"}}
			}
			if v.Value != "" {
				t.Children = []Node{CharData(v.Value)}
			}
			el.Children = append(el.Children, t)
		case *Tab:
			el.Children = append(el.Children, &Element{Name: wName("tab")})
		case *Break:
			br := &Element{Name: wName("br")}
			if v.Type != "" {
				br.Attr = append(br.Attr, wAttr("type", v.Type))
			}
			if v.Clear != "" {
				br.Attr = append(br.Attr, wAttr("clear", v.Clear))
			}
			el.Children = append(el.Children, br)
		case *RawItem:
			appendElement(el, v.Elem)
		}
	}
	return el
}

func encodeTable(t *Table) (el *Element) {
	el = &Element{Name: wName("tbl"), Attr: t.Attr}
	appendElement(el, t.Props)
	appendElement(el, t.Grid)
	for _, row := range t.Rows {
		for _, lead := range row.Leading {
			appendElement(el, lead)
		}
		el.Children = append(el.Children, encodeRow(row))
	}
	for _, extra := range t.Extra {
		appendElement(el, extra)
	}
	return el
}

func encodeRow(r *Row) (el *Element) {
	el = &Element{Name: wName("tr"), Attr: r.Attr}
	appendElement(el, r.PropsEx)
	appendElement(el, r.Props)
	for _, cell := range r.Cells {
		for _, lead := range cell.Leading {
			appendElement(el, lead)
		}
		tc := &Element{Name: wName("tc"), Attr: cell.Attr}
		appendElement(tc, cell.Props)
		tc.Children = append(tc.Children, encodeBlocks(cell.Content, true)...)
		el.Children = append(el.Children, tc)
	}
	for _, extra := range r.Extra {
		appendElement(el, extra)
	}
	return el
}

func appendElement(parent, child *Element) {
	if child != nil {
		parent.Children = append(parent.Children, child)
	}
}

// writeTree serializes a prolog and root element. Whitespace-only text is written as is.
func writeTree(buf *bytes.Buffer, prolog []xml.Token, root *Element) {
	for _, tok := range prolog {
		switch t := tok.(type) {
		case xml.ProcInst:
			buf.WriteString("<?")
			buf.WriteString(t.Target)
			if len(t.Inst) > 0 {
				buf.WriteByte(' ')
				buf.Write(t.Inst)
			}
			buf.WriteString("?>")
		case xml.CharData:
			buf.Write(t)
		case xml.Comment:
			buf.WriteString("<!--")
			buf.Write(t)
			buf.WriteString("-->")
		case xml.Directive:
			buf.WriteString("<!")
			buf.Write(t)
			buf.WriteByte('>')
		}
	}
	writeElement(buf, root)
}

func writeElement(buf *bytes.Buffer, el *Element) {
	buf.WriteByte('<')
	buf.WriteString(qualifiedName(el.Name))
	for _, a := range el.Attr {
		buf.WriteByte(' ')
		buf.WriteString(qualifiedName(a.Name))
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(el.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, n := range el.Children {
		switch v := n.(type) {
		case *Element:
			writeElement(buf, v)
		case CharData:
			if strings.TrimSpace(string(v)) == "" {
				buf.WriteString(string(v))
				continue
			}
			_ = xml.EscapeText(buf, []byte(v))
		case Comment:
			buf.WriteString("<!--")
			buf.WriteString(string(v))
			buf.WriteString("-->")
		}
	}
	buf.WriteString("</")
	buf.WriteString(qualifiedName(el.Name))
	buf.WriteByte('>')
}

func qualifiedName(name xml.Name) (qualified string) {
	if name.Space == "" {
		qualified = name.Local
		return qualified
	}
	qualified = name.Space + ":" + name.Local
	return qualified
}
