package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseRobotsPrefersSpecificAgentGroup(t *testing.T) {
	body := `User-agent: ragsvc-crawler/1.0
Disallow: /private
Allow: /private/public

User-agent: *
Disallow: /
`
	rules := parseRobots(strings.NewReader(body), "ragsvc-crawler/1.0")
	if len(rules) != 2 {
		t.Fatalf("expected the agent-specific group, got %d rules", len(rules))
	}
}

func TestParseRobotsFallsBackToWildcard(t *testing.T) {
	body := `User-agent: *
Disallow: /admin
`
	rules := parseRobots(strings.NewReader(body), "some-other-bot")
	if len(rules) != 1 || rules[0].path != "/admin" {
		t.Fatalf("expected wildcard group fallback, got %#v", rules)
	}
}

func TestRobotsAllowedDefaultsToAllowedOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !robotsAllowed(context.Background(), srv.Client(), "test-bot", srv.URL+"/page") {
		t.Fatalf("expected allowed when robots.txt is missing")
	}
}

func TestRobotsAllowedHonorsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if robotsAllowed(context.Background(), srv.Client(), "test-bot", srv.URL+"/private/doc") {
		t.Fatalf("expected /private/doc to be disallowed")
	}
	if !robotsAllowed(context.Background(), srv.Client(), "test-bot", srv.URL+"/public/doc") {
		t.Fatalf("expected /public/doc to be allowed")
	}
}
