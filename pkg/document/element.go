package document

import (
	"encoding/xml"
)

// Node is a child of an Element: *Element, CharData or Comment.
type Node interface {
	node()
}

// Element is a generic XML element. Names keep their literal prefix in Space ("w", "w14",
// "xmlns") so the part can be written back exactly as Word expects it.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
}

// CharData is literal text inside an element.
type CharData string

// Comment is an XML comment.
type Comment string

func (*Element) node() {}
func (CharData) node() {}
func (Comment) node()  {}

// Is reports whether e has the given prefix and local name.
func (e *Element) Is(space, local string) (ok bool) {
	ok = e != nil && e.Name.Space == space && e.Name.Local == local
	return ok
}

// Child returns the first direct child element with the given name, or nil.
func (e *Element) Child(space, local string) (child *Element) {
	if e == nil {
		return child
	}
	for _, n := range e.Children {
		if el, ok := n.(*Element); ok && el.Is(space, local) {
			child = el
			return child
		}
	}
	return child
}

// AttrValue returns the value of the named attribute.
func (e *Element) AttrValue(space, local string) (value string, ok bool) {
	if e == nil {
		return value, ok
	}
	for _, a := range e.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			value = a.Value
			ok = true
			return value, ok
		}
	}
	return value, ok
}

// Find returns the first element in e's subtree, e included, that satisfies match.
func (e *Element) Find(match func(el *Element) bool) (found *Element) {
	if e == nil {
		return found
	}
	if match(e) {
		found = e
		return found
	}
	for _, n := range e.Children {
		if el, ok := n.(*Element); ok {
			found = el.Find(match)
			if found != nil {
				return found
			}
		}
	}
	return found
}

// Text concatenates the content of every w:t in e's subtree, with w:tab as a tab and
// w:br and w:cr as newlines.
func (e *Element) Text() (text string) {
	if e == nil {
		return text
	}
	var buf []byte
	var walk func(el *Element)
	walk = func(el *Element) {
		switch {
		case el.Is(W, "t"):
			for _, n := range el.Children {
				if cd, ok := n.(CharData); ok {
					buf = append(buf, cd...)
				}
			}
			return
		case el.Is(W, "tab"):
			buf = append(buf, '\t')
			return
		case el.Is(W, "br"), el.Is(W, "cr"):
			buf = append(buf, '\n')
			return
		}
		for _, n := range el.Children {
			if child, ok := n.(*Element); ok {
				walk(child)
			}
		}
	}
	walk(e)
	text = string(buf)
	return text
}

// Clone returns a deep copy of e.
func (e *Element) Clone() (c *Element) {
	if e == nil {
		return c
	}
	c = &Element{Name: e.Name}
	if e.Attr != nil {
		c.Attr = make([]xml.Attr, len(e.Attr))
		copy(c.Attr, e.Attr)
	}
	if e.Children != nil {
		c.Children = make([]Node, len(e.Children))
		for i, n := range e.Children {
			if el, ok := n.(*Element); ok {
				c.Children[i] = el.Clone()
				continue
			}
			c.Children[i] = n
		}
	}
	return c
}

// W is the conventional WordprocessingML prefix.
const W = "w"

func wName(local string) (name xml.Name) {
	name = xml.Name{Space: W, Local: local}
	return name
}

func wAttr(local, value string) (attr xml.Attr) {
	attr = xml.Attr{Name: wName(local), Value: value}
	return attr
}

func cloneAttrs(attrs []xml.Attr) (c []xml.Attr) {
	if attrs == nil {
		return c
	}
	c = make([]xml.Attr, len(attrs))
	copy(c, attrs)
	return c
}
