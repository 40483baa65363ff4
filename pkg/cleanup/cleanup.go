// Package cleanup removes visually empty paragraphs from a rendered document without
// touching paragraphs that carry section, page or column breaks.
package cleanup

import (
	"strings"

	"github.com/nikogura/cv-customizer/pkg/document"
)

// Removable reports whether p is blank and carries no structural break.
func Removable(p *document.Paragraph) (ok bool) {
	if strings.TrimSpace(p.Text()) != "" {
		return ok
	}
	if p.HasSectionBreak() || p.HasPageOrColumnBreak() {
		return ok
	}
	ok = true
	return ok
}

// Clean deletes every removable paragraph reachable from the body, including those inside
// nested tables, and returns how many were deleted. Running it twice removes nothing the
// second time.
func Clean(doc *document.Document) (removed int) {
	doomed := make(map[document.Container]map[*document.Paragraph]bool)
	var order []document.Container

	_ = document.Walk(doc, func(b document.Block, parent document.Container) (err error) {
		p, ok := b.(*document.Paragraph)
		if !ok || !Removable(p) {
			return err
		}
		if doomed[parent] == nil {
			doomed[parent] = make(map[*document.Paragraph]bool)
			order = append(order, parent)
		}
		doomed[parent][p] = true
		return err
	})

	for _, parent := range order {
		drop := doomed[parent]
		blocks := parent.Blocks()
		kept := make([]document.Block, 0, len(blocks))
		for _, b := range blocks {
			if p, ok := b.(*document.Paragraph); ok && drop[p] {
				removed++
				continue
			}
			kept = append(kept, b)
		}
		parent.SetBlocks(kept)
	}

	return removed
}
