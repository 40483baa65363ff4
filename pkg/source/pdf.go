package source

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// PDFTool is the external extractor preferred when it is installed.
const PDFTool = "pdftotext"

// PDFExtractor pulls plain text out of a PDF file.
type PDFExtractor struct {
	// Tool overrides PDFTool. Empty means PDFTool.
	Tool string
	// NoTool skips the external extractor entirely.
	NoTool bool
	Logger zerolog.Logger
}

// Extract returns the text of path. pdftotext -layout is used when it is on PATH,
// otherwise pages are read in-process and joined with blank lines.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	tool := e.Tool
	if tool == "" {
		tool = PDFTool
	}

	if !e.NoTool {
		bin, lookErr := exec.LookPath(tool)
		if lookErr == nil {
			text, err = runTool(ctx, bin, path)
			return text, err
		}
		e.Logger.Debug().Str("tool", tool).Msg("PDF tool not found, using built-in extractor")
	}

	text, err = readPages(path)
	return text, err
}

func runTool(ctx context.Context, bin, path string) (text string, err error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = errors.Wrap(err, msg)
		}
		err = apperr.Wrapf(apperr.PDF, err, "failed to read PDF: %s", path)
		return text, err
	}

	text = stdout.String()
	return text, err
}

func readPages(path string) (text string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		err = apperr.Wrapf(apperr.PDF, err, "failed to open PDF: %s", path)
		return text, err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}

		var content string
		content, err = page.GetPlainText(fonts)
		if err != nil {
			err = apperr.Wrapf(apperr.PDF, err, "failed to read page %d of %s", i, path)
			return text, err
		}
		pages = append(pages, content)
	}

	text = strings.Join(pages, "\n\n")
	return text, err
}
