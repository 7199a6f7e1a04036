package crawl

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// skippedTags are stripped from the document before title/content extraction
// so navigation chrome and inline scripts never leak into extracted text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "header": true, "footer": true,
}

// extractPage walks parsed HTML and returns the title (via the
// title → h1 → og:title → URL cascade) and the main text (via the
// main → article → .content → #content → body selector cascade), matching
// spec.md §4.8 step 3.
func extractPage(htmlContent, sourceURL string) (title, text string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return fallbackTitle(sourceURL), ""
	}
	title = findTitle(doc)
	if title == "" {
		title = fallbackTitle(sourceURL)
	}

	main := findBySelector(doc, "main")
	if main == nil {
		main = findBySelector(doc, "article")
	}
	if main == nil {
		main = findByClass(doc, "content")
	}
	if main == nil {
		main = findByID(doc, "content")
	}
	if main == nil {
		main = findBySelector(doc, "body")
	}
	if main == nil {
		return title, ""
	}

	var sb strings.Builder
	collectText(main, &sb)
	return title, strings.Join(strings.Fields(sb.String()), " ")
}

func fallbackTitle(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return sourceURL
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return u.Host
	}
	return base
}

func findTitle(n *html.Node) string {
	if t := findBySelector(n, "title"); t != nil && t.FirstChild != nil {
		if s := strings.TrimSpace(t.FirstChild.Data); s != "" {
			return s
		}
	}
	if h1 := findBySelector(n, "h1"); h1 != nil {
		var sb strings.Builder
		collectText(h1, &sb)
		if s := strings.TrimSpace(sb.String()); s != "" {
			return s
		}
	}
	if og := findMetaProperty(n, "og:title"); og != "" {
		return og
	}
	return ""
}

func findMetaProperty(n *html.Node, property string) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var isProp bool
		var content string
		for _, a := range n.Attr {
			if a.Key == "property" && a.Val == property {
				isProp = true
			}
			if a.Key == "content" {
				content = a.Val
			}
		}
		if isProp {
			return strings.TrimSpace(content)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := findMetaProperty(c, property); v != "" {
			return v
		}
	}
	return ""
}

func findBySelector(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBySelector(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasAttrToken(n, "class", class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func hasAttrToken(n *html.Node, attr, token string) bool {
	for _, a := range n.Attr {
		if a.Key != attr {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == token {
				return true
			}
		}
	}
	return false
}

// collectText concatenates text nodes under n, skipping script/style/nav
// chrome subtrees entirely.
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skippedTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			sb.WriteString(s)
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// extractLinks returns absolute same-domain links found in htmlContent,
// capped at 10 per page per spec.md §4.8 step 6, deduplicated and
// normalized (fragment and trailing slash stripped) before the cap is
// applied.
func extractLinks(htmlContent, pageURL string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= 10 {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				if abs := resolveSameDomain(base, a.Val); abs != "" && !seen[abs] {
					seen[abs] = true
					out = append(out, abs)
					if len(out) >= 10 {
						return
					}
				}
			}
		}
		for c := n.FirstChild; c != nil && len(out) < 10; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func resolveSameDomain(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host != base.Host {
		return ""
	}
	abs.Fragment = ""
	abs.Path = strings.TrimSuffix(abs.Path, "/")
	return abs.String()
}
