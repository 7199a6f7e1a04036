package crawl

import (
	"context"
	"time"

	"singularityio/internal/web"
)

// headlessResult mirrors FetchResult for the browser-rendered path.
type headlessResult struct {
	Title string
	Text  string
	Links []string
}

// fetchHeadless renders pageURL with a headless browser and runs the same
// title/content cascade and link extraction as the non-headless path,
// grounded on internal/web.FetchRenderedHTML (adapted chromedp fetch).
func fetchHeadless(ctx context.Context, pageURL string) (*headlessResult, error) {
	rendered, err := web.FetchRenderedHTML(ctx, pageURL, "ragsvc-crawler/1.0", 60*time.Second)
	if err != nil {
		return nil, err
	}
	title, text := extractPage(rendered, pageURL)
	links := extractLinks(rendered, pageURL)
	return &headlessResult{Title: title, Text: text, Links: links}, nil
}
