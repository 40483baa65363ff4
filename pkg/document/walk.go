package document

import (
	"github.com/pkg/errors"
)

// SkipChildren returned from a WalkFunc stops Walk descending into a table.
//
//nolint:gochecknoglobals // sentinel error
var SkipChildren = errors.New("skip children")

// WalkFunc is called for each block with the container that owns it. It must not modify
// parent's block list; collect changes and apply them after Walk returns.
type WalkFunc func(b Block, parent Container) (err error)

// Walk visits every block reachable from c, depth first and in document order, descending
// through table rows into cells at any depth.
func Walk(c Container, fn WalkFunc) (err error) {
	for _, b := range c.Blocks() {
		err = fn(b, c)
		if errors.Is(err, SkipChildren) {
			err = nil
			continue
		}
		if err != nil {
			return err
		}

		t, ok := b.(*Table)
		if !ok {
			continue
		}
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				err = Walk(cell, fn)
				if err != nil {
					return err
				}
			}
		}
	}
	return err
}

// Paragraphs returns every paragraph reachable from c in document order.
func Paragraphs(c Container) (paragraphs []*Paragraph) {
	_ = Walk(c, func(b Block, _ Container) (err error) {
		if p, ok := b.(*Paragraph); ok {
			paragraphs = append(paragraphs, p)
		}
		return err
	})
	return paragraphs
}
