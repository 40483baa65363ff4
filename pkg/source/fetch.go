package source

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Fetch timeouts for the two commands that read URLs.
const (
	JobSpecTimeout = 20 * time.Second
	ProfileTimeout = 25 * time.Second
)

// UserAgent is sent with every fetch.
const UserAgent = "cv-customizer/1.0"

// Fetcher retrieves a page over HTTP and returns its text.
type Fetcher struct {
	// Timeout bounds one request. Zero means JobSpecTimeout.
	Timeout time.Duration
	// Raw returns the decoded body as-is instead of converting HTML to markdown.
	Raw    bool
	Client *http.Client
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) (f *Fetcher) {
	f = &Fetcher{Timeout: timeout}
	return f
}

// Fetch GETs url. Network errors and non-2xx statuses are Fetch errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (content string, err error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = JobSpecTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = apperr.Wrapf(apperr.Fetch, err, "failed to create request for %s", url)
		return content, err
	}
	req.Header.Set("User-Agent", UserAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = apperr.Wrapf(apperr.Fetch, err, "failed to fetch %s", url)
		return content, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = apperr.New(apperr.Fetch, errors.Errorf("failed to fetch %s: HTTP status %d", url, resp.StatusCode))
		return content, err
	}

	contentType := resp.Header.Get("Content-Type")

	var body io.Reader
	body, err = charset.NewReader(resp.Body, contentType)
	if err != nil {
		err = apperr.Wrapf(apperr.Fetch, err, "failed to decode response from %s", url)
		return content, err
	}

	var data []byte
	data, err = io.ReadAll(body)
	if err != nil {
		err = apperr.Wrapf(apperr.Fetch, err, "failed to read response from %s", url)
		return content, err
	}

	content = string(data)
	if f.Raw || !isHTML(contentType, content) {
		return content, err
	}

	var md string
	md, err = htmltomarkdown.ConvertString(content)
	if err != nil {
		err = apperr.Wrapf(apperr.Fetch, err, "failed to convert HTML from %s", url)
		return content, err
	}

	content = strings.TrimSpace(md)
	return content, err
}

func isHTML(contentType, body string) (html bool) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			html = mediaType == "text/html" || mediaType == "application/xhtml+xml"
			return html
		}
	}

	head := strings.ToLower(strings.TrimSpace(body))
	html = strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
	return html
}
