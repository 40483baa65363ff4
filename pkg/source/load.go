package source

import (
	"net/url"
	"os"
	"strings"

	"github.com/nikogura/cv-customizer/pkg/apperr"
)

// IsURL reports whether input is an http or https URL.
func IsURL(input string) (ok bool) {
	parsed, err := url.Parse(input)
	ok = err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
	return ok
}

// IsPDF reports whether path names a PDF file.
func IsPDF(path string) (ok bool) {
	ok = strings.HasSuffix(strings.ToLower(path), ".pdf")
	return ok
}

// ReadFile reads a UTF-8 text file. Read failures are InputRead errors.
func ReadFile(path string) (content string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = apperr.Wrapf(apperr.InputRead, err, "failed to read %s", path)
		return content, err
	}

	content = string(data)
	return content, err
}
