package ragapi

import (
	"context"
	"testing"

	"singularityio/internal/config"
	"singularityio/internal/persistence/databases"
)

func newTestManager(t *testing.T) databases.Manager {
	t.Helper()
	mgr, err := databases.NewManager(context.Background(), config.DBConfig{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr
}

func TestNewWiresAnApp(t *testing.T) {
	cfg := config.Config{
		LLMClient: config.LLMClientConfig{Provider: "anthropic", Anthropic: config.AnthropicConfig{Model: "claude-3"}},
		Crawl:     config.CrawlConfig{UserAgent: "ragsvc-test"},
	}

	app, err := New(cfg, newTestManager(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.Service == nil || app.Gen == nil || app.Crawl == nil || app.Embedder == nil {
		t.Fatalf("expected all App dependencies to be wired, got %#v", app)
	}
}

func TestNewRejectsUnsupportedProvider(t *testing.T) {
	cfg := config.Config{LLMClient: config.LLMClientConfig{Provider: "unknown"}}
	if _, err := New(cfg, newTestManager(t)); err == nil {
		t.Fatalf("expected an error for an unsupported LLM provider")
	}
}
