package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherExtractsArticleAndLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Example</title></head><body>
<main><p>` + strings.Repeat("Paragraph content for readability extraction. ", 30) + `</p>
<a href="/other">Other</a></main></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher("test-bot", 5*time.Second)
	result, err := f.Fetch(context.Background(), srv.URL+"/article")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(result.Markdown, "Paragraph content") {
		t.Fatalf("expected extracted markdown to contain article text, got %q", result.Markdown)
	}
}

func TestFetcherRejectsNonHTMLContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher("test-bot", 5*time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL+"/data"); err == nil {
		t.Fatalf("expected error for non-HTML content type")
	}
}

func TestFetcherRejectsUnsupportedScheme(t *testing.T) {
	f := NewFetcher("test-bot", 5*time.Second)
	if _, err := f.Fetch(context.Background(), "ftp://example.com/file"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
