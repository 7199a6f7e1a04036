package crawl

import "testing"

func TestExtractPageSelectorCascade(t *testing.T) {
	html := `<html><head><title>Doc Title</title></head><body>
<nav>skip me</nav>
<main><p>Hello world, this is the body.</p></main>
<script>var x = 1;</script>
</body></html>`

	title, text := extractPage(html, "https://example.com/a")
	if title != "Doc Title" {
		t.Fatalf("expected title from <title>, got %q", title)
	}
	if text != "Hello world, this is the body." {
		t.Fatalf("unexpected extracted text: %q", text)
	}
}

func TestExtractPageFallsBackToH1ThenURL(t *testing.T) {
	html := `<html><body><main><h1>Heading Title</h1><p>content here</p></main></body></html>`
	title, _ := extractPage(html, "https://example.com/a")
	if title != "Heading Title" {
		t.Fatalf("expected fallback to h1, got %q", title)
	}

	title, _ = extractPage(`<html><body><main>no heading</main></body></html>`, "https://example.com/some-page")
	if title != "some-page" {
		t.Fatalf("expected fallback to URL basename, got %q", title)
	}
}

func TestExtractLinksSameDomainCapAndDedup(t *testing.T) {
	html := `<html><body>
<a href="/a">a</a>
<a href="/a#frag">a dup</a>
<a href="/b/">b</a>
<a href="https://other.com/x">external</a>
</body></html>`
	links := extractLinks(html, "https://example.com/")
	if len(links) != 2 {
		t.Fatalf("expected 2 deduped same-domain links, got %v", links)
	}
}

func TestMatchesRulesLongestPrefixWins(t *testing.T) {
	rules := []robotsRule{
		{disallow: true, path: "/private"},
		{disallow: false, path: "/private/public"},
	}
	if !matchesRules(rules, "/private/public/page") {
		t.Fatalf("expected the more specific Allow rule to win")
	}
	if matchesRules(rules, "/private/secret") {
		t.Fatalf("expected the Disallow rule to apply outside the Allow path")
	}
}
