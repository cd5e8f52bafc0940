// Package chromedp extracts articles from script-rendered pages: the page is
// loaded in a headless browser first, then the rendered HTML goes through
// readability.
package chromedp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"

	"github.com/readaloud-go/readaloud/extract"
)

const DefaultTimeout = 15 * time.Second

type Extractor struct {
	timeout time.Duration
}

// Ensure Extractor implements the extraction contract
var _ extract.Extractor = (*Extractor)(nil)

func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{timeout: timeout}
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (extract.Article, error) {
	u, err := extract.ValidateURL(rawURL)
	if err != nil {
		return extract.Article{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := fetchHTML(ctx, u.String())
	if err != nil {
		return extract.Article{}, extract.NewError(extract.CodeFetchFailed, err)
	}

	article, err := readability.FromReader(strings.NewReader(html), u)
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

func fetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
