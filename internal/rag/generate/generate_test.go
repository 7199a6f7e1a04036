package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"singularityio/internal/llm"
)

type fakeProvider struct {
	resp llm.Message
	err  error
}

func (f fakeProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	return f.resp, f.err
}

func (f fakeProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

func TestGeneratorAnswerReturnsProviderText(t *testing.T) {
	g := New(fakeProvider{resp: llm.Message{Content: "the answer"}}, "model", Persona{})
	got := g.Answer(context.Background(), "q", "ctx", nil)
	if got != "the answer" {
		t.Fatalf("expected provider text, got %q", got)
	}
}

func TestGeneratorAnswerFallsBackOnEmptyResponse(t *testing.T) {
	g := New(fakeProvider{resp: llm.Message{Content: "  "}}, "model", Persona{})
	got := g.Answer(context.Background(), "q", "ctx", nil)
	if got != fallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", got)
	}
}

func TestGeneratorAnswerSurfacesTransportErrorAsText(t *testing.T) {
	g := New(fakeProvider{err: errors.New("boom")}, "model", Persona{})
	got := g.Answer(context.Background(), "q", "ctx", nil)
	if !strings.HasPrefix(got, "Error generating answer: ") {
		t.Fatalf("expected error-as-text answer, got %q", got)
	}
}

func TestBuildPromptKeepsOnlyLastThreeHistoryTurns(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "1"},
		{Role: "assistant", Content: "2"},
		{Role: "user", Content: "3"},
		{Role: "assistant", Content: "4"},
		{Role: "user", Content: "5"},
	}
	msgs := BuildPrompt(Persona{}, history, "", "query")
	// system + last 3 history turns + user query
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages (system+3 history+query), got %d", len(msgs))
	}
	if msgs[1].Content != "3" || msgs[3].Content != "5" {
		t.Fatalf("expected only the last 3 history turns kept, got %#v", msgs)
	}
}
