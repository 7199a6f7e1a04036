// Package crawl implements the CrawlOrchestrator: a background spider that
// fetches a seed URL (and, optionally, same-domain links it finds), extracts
// article text, and feeds it through the ingestion pipeline.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
)

// FetchResult is the outcome of fetching and extracting a single page.
type FetchResult struct {
	FinalURL string
	Title    string
	Markdown string
	Links    []string
}

// Fetcher retrieves a page without a browser: plain HTTP GET, readability
// article extraction, then HTML-to-Markdown conversion. Grounded on the
// teacher's tool-calling web fetcher, trimmed to what the crawler needs
// (no fenced-output stub for binary/JSON responses, no functional options).
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher builds a non-headless fetcher with a hardened transport and the
// configured User-Agent and per-request timeout.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	dialer := &net.Dialer{Timeout: 7 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   7 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &Fetcher{
		client:    &http.Client{Transport: transport, Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  10 * 1000 * 1000,
	}
}

// Fetch retrieves rawURL and returns its extracted title, article markdown,
// and the same-domain links found on the page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	ct, cs := parseContentType(resp.Header.Get("Content-Type"))
	if !isHTML(ct) {
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", rawURL, ct)
	}

	limited := io.LimitReader(resp.Body, f.maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, errors.New("response exceeds max bytes")
	}
	utf8Body, err := toUTF8(body, cs)
	if err != nil {
		return nil, fmt.Errorf("charset decode: %w", err)
	}

	finalURL := resp.Request.URL.String()
	html := string(utf8Body)
	links := extractLinks(html, finalURL)

	base, _ := url.Parse(finalURL)
	var articleHTML, title string
	if art, rerr := readability.FromReader(strings.NewReader(html), base); rerr == nil && strings.TrimSpace(art.Content) != "" {
		articleHTML = art.Content
		title = strings.TrimSpace(art.Title)
	} else {
		articleHTML = html
	}

	md, err := htmltomarkdown.ConvertString(articleHTML, converter.WithDomain(baseOrigin(finalURL)))
	if err != nil {
		return nil, fmt.Errorf("html to markdown: %w", err)
	}

	return &FetchResult{FinalURL: finalURL, Title: title, Markdown: strings.TrimSpace(md), Links: links}, nil
}

func parseContentType(h string) (ctype, charsetLabel string) {
	if h == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(h)
	if err != nil {
		return h, ""
	}
	return strings.ToLower(mt), strings.ToLower(params["charset"])
}

func isHTML(ct string) bool {
	return ct == "text/html" || ct == "application/xhtml+xml" || strings.HasSuffix(ct, "html")
}

func toUTF8(b []byte, charsetLabel string) ([]byte, error) {
	if charsetLabel == "" || strings.EqualFold(charsetLabel, "utf-8") || strings.EqualFold(charsetLabel, "utf8") {
		return b, nil
	}
	r, err := charset.NewReaderLabel(charsetLabel, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func baseOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
