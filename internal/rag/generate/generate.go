package generate

import (
	"context"
	"fmt"
	"strings"

	"singularityio/internal/llm"
)

// fallbackAnswer is returned when the model produces no extractable text,
// per spec.md §4.6.
const fallbackAnswer = "I don't have enough information to answer that."

// Generator answers a query against assembled context using an llm.Provider.
type Generator struct {
	provider llm.Provider
	model    string
	persona  Persona
}

// New builds a Generator backed by provider, generating with model and
// substituting persona into the system preamble.
func New(provider llm.Provider, model string, persona Persona) *Generator {
	return &Generator{provider: provider, model: model, persona: persona}
}

// Answer builds the prompt from history/context/query and returns the
// extracted answer text. LLM transport failures are surfaced as the answer
// text itself (spec.md §4.6's "Failure" clause), not a Go error, so the
// request still succeeds at the API layer.
func (g *Generator) Answer(ctx context.Context, query, contextBlob string, history []llm.Message) string {
	msgs := BuildPrompt(g.persona, history, contextBlob, query)
	resp, err := g.provider.Chat(ctx, msgs, nil, g.model)
	if err != nil {
		return fmt.Sprintf("Error generating answer: %s", err.Error())
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return fallbackAnswer
	}
	return text
}
