// Package extract defines the content-extraction boundary: given a URL,
// produce the readable article or a typed error. The playback core treats
// any extraction error as "no article available" and never starts a session
// from one.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Article is the readable content extracted from a page. Content holds
// plain text with paragraphs separated by a double line break and
// normalized internal whitespace.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// Error codes reported at the extraction boundary.
const (
	CodeMissingURL       = "missing-url"
	CodeInvalidURL       = "invalid-url-format"
	CodeFetchFailed      = "fetch-failed"
	CodeExtractionFailed = "extraction-failed"
)

// Error is a typed extraction failure.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with an extraction error code.
func NewError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Extractor turns a URL into an Article.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (Article, error)
}

// ValidateURL checks a request URL, returning a typed error for empty or
// malformed input and the parsed URL otherwise.
func ValidateURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, NewError(CodeMissingURL, nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewError(CodeInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, NewError(CodeInvalidURL, fmt.Errorf("not an absolute http(s) url: %s", rawURL))
	}
	return u, nil
}

// NormalizeContent turns raw readability text into speakable content:
// paragraphs separated by exactly one blank line, internal whitespace
// collapsed to single spaces.
func NormalizeContent(text string) string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n") {
		fields := strings.Fields(block)
		if len(fields) == 0 {
			continue
		}
		paragraphs = append(paragraphs, strings.Join(fields, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

// ExcerptOf trims an excerpt to a renderable length, falling back to the
// opening of the content when the extractor produced none.
func ExcerptOf(excerpt, content string, max int) string {
	s := strings.TrimSpace(excerpt)
	if s == "" {
		s = content
	}
	if len(s) > max {
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut]) + "…"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Kind selects an extractor implementation.
type Kind string

const (
	// KindReadability fetches over plain HTTP and runs readability.
	KindReadability Kind = "readability"
	// KindChromedp renders the page in a headless browser first, for
	// script-heavy sites.
	KindChromedp Kind = "chromedp"
)

// ParseKind maps a config value to an extractor Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindReadability, "":
		return KindReadability, nil
	case KindChromedp:
		return KindChromedp, nil
	default:
		return KindReadability, fmt.Errorf("unsupported extractor kind: %s", s)
	}
}
