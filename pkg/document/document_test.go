package document

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml">`

func wrapBody(body string) (doc string) {
	doc = header + "<w:body>" + body + `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
	return doc
}

const sampleBody = `<w:p w14:paraId="1A2B3C4D"><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>Jane</w:t></w:r><w:r><w:t xml:space="preserve"> Doe</w:t></w:r></w:p>` +
	`<w:p/>` +
	`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
	`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid><w:gridCol w:w="4500"/></w:tblGrid>` +
	`<w:tr><w:tc><w:tcPr><w:tcW w:w="4500" w:type="dxa"/></w:tcPr><w:p><w:r><w:t>Cell &amp; text</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Nested</w:t></w:r></w:p></w:tc></w:tr></w:tbl><w:p/></w:tc></w:tr></w:tbl>` +
	`<w:p><w:hyperlink w:history="1"><w:r><w:t>link text</w:t></w:r></w:hyperlink></w:p>`

func buildPackage(t *testing.T, documentXML string) (data []byte) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{name: "[Content_Types].xml", content: `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{name: "_rels/.rels", content: `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`},
		{name: "word/document.xml", content: documentXML},
		{name: "word/styles.xml", content: `<?xml version="1.0"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	data = buf.Bytes()
	return data
}

func readZipPart(t *testing.T, data []byte, name string) (content string) {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		content = string(b)
		return content
	}
	t.Fatalf("part %s not found", name)
	return content
}

func TestParseXMLStructure(t *testing.T) {
	doc, err := ParseXML([]byte(wrapBody(sampleBody)))
	require.NoError(t, err)

	require.Len(t, doc.Body, 6)

	p, ok := doc.Body[0].(*Paragraph)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", p.Text())
	require.NotNil(t, p.Props)
	require.Len(t, p.Content, 2)
	assert.NotNil(t, p.Content[0].(*Run).Props)

	blank, ok := doc.Body[1].(*Paragraph)
	require.True(t, ok)
	assert.Empty(t, blank.Text())

	tbl, ok := doc.Body[3].(*Table)
	require.True(t, ok)
	require.Len(t, tbl.Rows, 1)
	require.Len(t, tbl.Rows[0].Cells, 1)
	cell := tbl.Rows[0].Cells[0]
	require.Len(t, cell.Content, 3)
	assert.Equal(t, "Cell & text", cell.Content[0].(*Paragraph).Text())
	_, nested := cell.Content[1].(*Table)
	assert.True(t, nested)

	assert.Equal(t, "link text", doc.Body[4].(*Paragraph).Text())

	raw, ok := doc.Body[5].(*RawBlock)
	require.True(t, ok)
	assert.True(t, raw.Elem.Is(W, "sectPr"))
}

func TestParagraphBreaks(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		section bool
		page    bool
	}{
		{name: "plain", xml: `<w:p><w:r><w:t>x</w:t></w:r></w:p>`},
		{name: "page break", xml: `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`, page: true},
		{name: "column break", xml: `<w:p><w:r><w:br w:type="column"/></w:r></w:p>`, page: true},
		{name: "line break", xml: `<w:p><w:r><w:br/></w:r></w:p>`},
		{name: "text wrapping break", xml: `<w:p><w:r><w:br w:type="textWrapping"/></w:r></w:p>`},
		{name: "page break in hyperlink", xml: `<w:p><w:hyperlink><w:r><w:br w:type="page"/></w:r></w:hyperlink></w:p>`, page: true},
		{name: "section break", xml: `<w:p><w:pPr><w:sectPr/></w:pPr></w:p>`, section: true},
		{name: "section props elsewhere", xml: `<w:p><w:pPr><w:jc w:val="center"/></w:pPr></w:p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseXML([]byte(wrapBody(tt.xml)))
			require.NoError(t, err)
			p := doc.Body[0].(*Paragraph)

			assert.Equal(t, tt.section, p.HasSectionBreak())
			assert.Equal(t, tt.page, p.HasPageOrColumnBreak())
		})
	}
}

func TestXMLRoundTrip(t *testing.T) {
	doc, err := ParseXML([]byte(wrapBody(sampleBody)))
	require.NoError(t, err)

	out := string(doc.XML())
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, out, "\n<w:document ")
	assert.Contains(t, out, `xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml"`)
	assert.Contains(t, out, `<w:p w14:paraId="1A2B3C4D">`)
	assert.Contains(t, out, `<w:t xml:space="preserve"> Doe</w:t>`)
	assert.Contains(t, out, `<w:t>Cell &amp; text</w:t>`)
	assert.Contains(t, out, `<w:br w:type="page"/>`)
	assert.Contains(t, out, `<w:hyperlink w:history="1">`)

	again, err := ParseXML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, out, string(again.XML()))
}

func TestCellEndsWithParagraph(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:tcPr/><w:p><w:r><w:t>gone</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p/><w:tbl><w:tr><w:tc><w:p/></w:tc></w:tr></w:tbl></w:tc></w:tr></w:tbl>`
	doc, err := ParseXML([]byte(wrapBody(body)))
	require.NoError(t, err)

	row := doc.Body[0].(*Table).Rows[0]
	row.Cells[0].SetBlocks(nil)
	row.Cells[1].SetBlocks(row.Cells[1].Blocks()[1:])

	out := string(doc.XML())
	assert.Contains(t, out, `<w:tc><w:tcPr/><w:p/></w:tc>`)
	assert.Contains(t, out, `</w:tbl><w:p/></w:tc>`)
	assert.NotContains(t, out, "gone")

	// The tree keeps what was set.
	assert.Empty(t, row.Cells[0].Blocks())
}

func TestTableChildrenKeepPosition(t *testing.T) {
	rows := `<w:tbl><w:tblPr/><w:tblGrid/>` +
		`<w:tr><w:tc><w:p><w:r><w:t>one</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:bookmarkStart w:id="0" w:name="second"/>` +
		`<w:tr><w:tc><w:p/></w:tc><w:bookmarkEnd w:id="9"/><w:tc><w:p/></w:tc></w:tr>` +
		`<w:bookmarkEnd w:id="0"/>` +
		`<w:tr><w:tc><w:p><w:r><w:t>three</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:customXmlDelRangeEnd w:id="1"/></w:tbl>`
	doc, err := ParseXML([]byte(wrapBody(rows)))
	require.NoError(t, err)

	table := doc.Body[0].(*Table)
	require.Len(t, table.Rows, 3)
	assert.Empty(t, table.Rows[0].Leading)
	require.Len(t, table.Rows[1].Leading, 1)
	require.Len(t, table.Rows[2].Leading, 1)
	require.Len(t, table.Rows[1].Cells[1].Leading, 1)
	require.Len(t, table.Extra, 1)

	assert.Contains(t, string(doc.XML()), rows)

	clone := table.Clone()
	require.Len(t, clone.Rows[1].Leading, 1)
	assert.NotSame(t, table.Rows[1].Leading[0], clone.Rows[1].Leading[0])
}

func TestReadWriteTo(t *testing.T) {
	data := buildPackage(t, wrapBody(sampleBody))

	doc, err := Read(data)
	require.NoError(t, err)

	doc.SetBlocks(doc.Blocks()[:1])

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.Bytes()
	assert.Equal(t,
		`<?xml version="1.0"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		readZipPart(t, out, "word/styles.xml"))

	main := readZipPart(t, out, MainPart)
	assert.Contains(t, main, "Jane")
	assert.NotContains(t, main, "Nested")

	reread, err := Read(out)
	require.NoError(t, err)
	assert.Len(t, reread.Body, 1)
}

func TestWriteToWithoutPackage(t *testing.T) {
	doc, err := ParseXML([]byte(wrapBody(sampleBody)))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = doc.WriteTo(&buf)
	require.NoError(t, err)

	assert.Contains(t, readZipPart(t, buf.Bytes(), MainPart), "Jane")
}

func TestWithBodyLeavesOriginal(t *testing.T) {
	doc, err := ParseXML([]byte(wrapBody(sampleBody)))
	require.NoError(t, err)

	derived := doc.WithBody(CloneBlocks(doc.Body[:1]))
	derived.Body[0].(*Paragraph).Content = nil

	assert.Len(t, doc.Body, 6)
	assert.Equal(t, "Jane Doe", doc.Body[0].(*Paragraph).Text())
	assert.NotContains(t, string(derived.XML()), "Jane")
}

func TestWalkOrder(t *testing.T) {
	doc, err := ParseXML([]byte(wrapBody(sampleBody)))
	require.NoError(t, err)

	var texts []string
	for _, p := range Paragraphs(doc) {
		texts = append(texts, p.Text())
	}
	assert.Equal(t, []string{"Jane Doe", "", "\n", "Cell & text", "Nested", "", "link text"}, texts)

	var visited int
	err = Walk(doc, func(b Block, _ Container) (err error) {
		visited++
		if _, ok := b.(*Table); ok {
			err = SkipChildren
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 6, visited)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "wrong root", xml: `<foo/>`},
		{name: "no body", xml: header + `</w:document>`},
		{name: "unclosed", xml: header + `<w:body><w:p>`},
		{name: "mismatched", xml: header + `<w:body></w:p></w:body></w:document>`},
		{name: "empty", xml: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXML([]byte(tt.xml))
			assert.Error(t, err)
		})
	}
}

func TestReadRejectsNonZip(t *testing.T) {
	_, err := Read([]byte("not a zip"))
	assert.Error(t, err)
}

func TestOpenNonexistent(t *testing.T) {
	_, err := Open("/nonexistent/CV_Template.docx")
	assert.Error(t, err)
}
