// Package generate assembles prompts from retrieved context and session
// history and turns LLM provider responses into the Generator contract of
// spec.md §4.6: answer(query, context, history?, persona) → text.
package generate

import (
	"fmt"
	"strings"

	"singularityio/internal/llm"
	"singularityio/internal/rag/retrieve"
)

// Persona substitutes into the system preamble per spec.md §4.6.
type Persona struct {
	Name        string
	Personality string
}

// DefaultPersona is used when the caller supplies an empty Persona.
var DefaultPersona = Persona{Name: "Assistant", Personality: "helpful, concise, and direct"}

const systemPreamble = `You are %s, an assistant with this personality: %s.
Answer only from the information given in the provided context. If the context does not contain the answer, say so plainly rather than guessing.
Do not emit the numbered citation brackets (e.g. [1]) to the user; weave sources into prose instead.
Respond in the configured personality at all times.
When asked who you are, respond as %s.`

// BuildSources renders retrieved items into spec.md §4.5's numbered context
// blob: "[Document n] Source: … URL: … Relevance: … Content: …" blocks.
func BuildSources(items []retrieve.RetrievedItem) (contextBlob string, sources []Source) {
	if len(items) == 0 {
		return "", nil
	}
	var blocks []string
	for i, it := range items {
		n := i + 1
		title := it.Doc.Title
		if title == "" {
			title = it.DocID
		}
		blocks = append(blocks, fmt.Sprintf(
			"[Document %d] Source: %s | URL: %s | Relevance: %.3f\nContent: %s",
			n, title, it.Doc.URL, it.Score, strings.TrimSpace(it.Text),
		))
		sources = append(sources, Source{Number: n, Title: title, URL: it.Doc.URL, Score: it.Score, ChunkIndex: i})
	}
	return strings.Join(blocks, "\n\n"), sources
}

// Source is a citation surfaced to the caller alongside the answer.
type Source struct {
	Number     int     `json:"number"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

// BuildPrompt assembles the system preamble, up to the last three history
// turns, the context blob, and the query into the message list sent to the
// LLM provider. Empty sections are omitted, matching spec.md §4.6.
func BuildPrompt(persona Persona, history []llm.Message, contextBlob, query string) []llm.Message {
	if persona.Name == "" {
		persona = DefaultPersona
	}
	msgs := []llm.Message{{
		Role:    "system",
		Content: fmt.Sprintf(systemPreamble, persona.Name, persona.Personality, persona.Name),
	}}

	if n := len(history); n > 0 {
		if n > 3 {
			history = history[n-3:]
		}
		msgs = append(msgs, history...)
	}

	var userBody strings.Builder
	if strings.TrimSpace(contextBlob) != "" {
		userBody.WriteString("Context:\n")
		userBody.WriteString(strings.TrimSpace(contextBlob))
		userBody.WriteString("\n\n")
	}
	userBody.WriteString("Question: ")
	userBody.WriteString(strings.TrimSpace(query))

	msgs = append(msgs, llm.Message{Role: "user", Content: userBody.String()})
	return msgs
}
