// Package readability extracts articles over plain HTTP using go-readability.
package readability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/readaloud-go/readaloud/extract"
)

const (
	DefaultTimeout = 15 * time.Second

	userAgent = "readaloud/1.0 (+https://github.com/readaloud-go/readaloud)"
)

type Extractor struct {
	client *http.Client
}

// Ensure Extractor implements the extraction contract
var _ extract.Extractor = (*Extractor)(nil)

func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (extract.Article, error) {
	u, err := extract.ValidateURL(rawURL)
	if err != nil {
		return extract.Article{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return extract.Article{}, extract.NewError(extract.CodeFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return extract.Article{}, extract.NewError(extract.CodeFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return extract.Article{}, extract.NewError(extract.CodeFetchFailed,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return extract.Article{}, extract.NewError(extract.CodeExtractionFailed, err)
	}

	content := extract.NormalizeContent(article.TextContent)
	if content == "" {
		return extract.Article{}, extract.NewError(extract.CodeExtractionFailed,
			fmt.Errorf("no readable content at %s", rawURL))
	}

	return extract.Article{
		Title:   article.Title,
		Content: content,
		Excerpt: extract.ExcerptOf(article.Excerpt, content, 200),
	}, nil
}
