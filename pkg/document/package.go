package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MainPart is the conventional location of the main document part.
const MainPart = "word/document.xml"

const officeDocumentRel = "/officeDocument"

// zipEpoch is the modification time written for a main part that has no source entry.
//
//nolint:gochecknoglobals // fixed timestamp
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Document is a parsed DOCX package. Body holds the typed content of w:body; every other
// package part is carried through unchanged.
type Document struct {
	Body []Block

	prolog   []xml.Token
	root     *Element
	body     *Element
	pkg      *zip.Reader
	mainPart string
}

// Open reads a DOCX file.
func Open(filename string) (doc *Document, err error) {
	var data []byte
	data, err = os.ReadFile(filename)
	if err != nil {
		err = errors.Wrapf(err, "failed to read %s", filename)
		return doc, err
	}

	doc, err = Read(data)
	if err != nil {
		err = errors.Wrapf(err, "failed to load %s", filename)
		return doc, err
	}

	return doc, err
}

// Read parses DOCX package bytes.
func Read(data []byte) (doc *Document, err error) {
	var zr *zip.Reader
	zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "not a DOCX package")
		return doc, err
	}

	mainPart := findMainPart(zr)

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == mainPart {
			part = f
			break
		}
	}
	if part == nil {
		err = errors.Errorf("package has no %s part", mainPart)
		return doc, err
	}

	var xmlData []byte
	xmlData, err = readPart(part)
	if err != nil {
		return doc, err
	}

	doc, err = ParseXML(xmlData)
	if err != nil {
		return doc, err
	}

	doc.pkg = zr
	doc.mainPart = mainPart

	return doc, err
}

// ParseXML builds a Document from the main document part alone. Writing such a document
// produces a package holding only that part.
func ParseXML(data []byte) (doc *Document, err error) {
	var prolog []xml.Token
	var root *Element
	prolog, root, err = parseTree(data)
	if err != nil {
		return doc, err
	}

	if !root.Is(W, "document") {
		err = errors.Errorf("root element is %s, want w:document", qualifiedName(root.Name))
		return doc, err
	}

	body := root.Child(W, "body")
	if body == nil {
		err = errors.New("document has no w:body")
		return doc, err
	}

	doc = &Document{
		Body:     decodeBlocks(body),
		prolog:   prolog,
		root:     root,
		body:     body,
		mainPart: MainPart,
	}

	return doc, err
}

// Blocks returns the body content.
func (d *Document) Blocks() (blocks []Block) {
	blocks = d.Body
	return blocks
}

// SetBlocks replaces the body content.
func (d *Document) SetBlocks(blocks []Block) {
	d.Body = blocks
}

// WithBody returns a document that shares d's package parts but has the given body.
func (d *Document) WithBody(blocks []Block) (doc *Document) {
	doc = &Document{
		Body:     blocks,
		prolog:   d.prolog,
		root:     d.root,
		body:     d.body,
		pkg:      d.pkg,
		mainPart: d.mainPart,
	}
	return doc
}

// XML serializes the main document part.
func (d *Document) XML() (data []byte) {
	body := &Element{Name: d.body.Name, Attr: d.body.Attr, Children: encodeBlocks(d.Body, false)}

	root := &Element{Name: d.root.Name, Attr: d.root.Attr, Children: make([]Node, len(d.root.Children))}
	for i, n := range d.root.Children {
		if el, ok := n.(*Element); ok && el == d.body {
			root.Children[i] = body
			continue
		}
		root.Children[i] = n
	}

	var buf bytes.Buffer
	writeTree(&buf, d.prolog, root)
	data = buf.Bytes()
	return data
}

// WriteTo writes the DOCX package. Parts other than the main document are copied without
// recompression.
func (d *Document) WriteTo(w io.Writer) (n int64, err error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	wroteMain := false
	if d.pkg != nil {
		for _, f := range d.pkg.File {
			if f.Name == d.mainPart {
				err = d.writeMainPart(zw, f.Modified)
				wroteMain = true
			} else {
				err = zw.Copy(f)
			}
			if err != nil {
				err = errors.Wrapf(err, "failed to write part %s", f.Name)
				return cw.n, err
			}
		}
	}

	if !wroteMain {
		err = d.writeMainPart(zw, zipEpoch)
		if err != nil {
			err = errors.Wrapf(err, "failed to write part %s", d.mainPart)
			return cw.n, err
		}
	}

	err = zw.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to finish DOCX package")
		return cw.n, err
	}

	n = cw.n
	return n, err
}

func (d *Document) writeMainPart(zw *zip.Writer, modified time.Time) (err error) {
	var fw io.Writer
	fw, err = zw.CreateHeader(&zip.FileHeader{Name: d.mainPart, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = fw.Write(d.XML())
	return err
}

func readPart(f *zip.File) (data []byte, err error) {
	var rc io.ReadCloser
	rc, err = f.Open()
	if err != nil {
		err = errors.Wrapf(err, "failed to open part %s", f.Name)
		return data, err
	}
	defer rc.Close()

	data, err = io.ReadAll(rc)
	if err != nil {
		err = errors.Wrapf(err, "failed to read part %s", f.Name)
		return data, err
	}

	return data, err
}

type relationships struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// findMainPart resolves the officeDocument relationship, falling back to MainPart.
func findMainPart(zr *zip.Reader) (name string) {
	name = MainPart
	for _, f := range zr.File {
		if f.Name != "_rels/.rels" {
			continue
		}
		data, err := readPart(f)
		if err != nil {
			return name
		}
		var rels relationships
		if xml.Unmarshal(data, &rels) != nil {
			return name
		}
		for _, rel := range rels.Relationships {
			if strings.HasSuffix(rel.Type, officeDocumentRel) && rel.Target != "" {
				name = path.Clean(strings.TrimPrefix(rel.Target, "/"))
				return name
			}
		}
	}
	return name
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (n int, err error) {
	n, err = c.w.Write(p)
	c.n += int64(n)
	return n, err
}
