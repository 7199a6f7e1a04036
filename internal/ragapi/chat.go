package ragapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"singularityio/internal/llm"
	"singularityio/internal/persistence"
	"singularityio/internal/rag/generate"
	"singularityio/internal/rag/retrieve"
)

// ChatRequest mirrors spec.md §6's chat request body.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	UseHistory bool   `json:"use_history"`
}

// ChatResponse mirrors spec.md §6's chat response body.
type ChatResponse struct {
	Answer         string           `json:"answer"`
	Sources        []generate.Source `json:"sources"`
	FoundDocuments int              `json:"found_documents"`
	SessionID      string           `json:"session_id"`
}

const historyWindow = 6

// Chat answers a single chat turn for tenant: it resolves/creates the
// session, optionally loads prior turns, retrieves context, generates an
// answer, and persists both sides of the exchange.
func (a *App) Chat(ctx context.Context, tenant string, req ChatRequest) (ChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if _, err := a.Chat.EnsureSession(ctx, tenant, sessionID, ""); err != nil {
		return ChatResponse{}, fmt.Errorf("ragapi: ensure session: %w", err)
	}

	var history []llm.Message
	if req.UseHistory {
		msgs, err := a.Chat.ListMessages(ctx, tenant, sessionID, historyWindow)
		if err != nil {
			return ChatResponse{}, fmt.Errorf("ragapi: load history: %w", err)
		}
		for _, m := range msgs {
			history = append(history, llm.Message{Role: m.Role, Content: m.Content})
		}
	}

	result, err := a.Service.Retrieve(ctx, req.Message, retrieve.RetrieveOptions{
		K:              5,
		MinScore:       retrieve.DefaultMinScore,
		Tenant:         tenant,
		IncludeText:    true,
		IncludeSnippet: true,
		Diversify:      true,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("ragapi: retrieve: %w", err)
	}

	contextBlob, sources := generate.BuildSources(result.Items)
	answer := a.Gen.Answer(ctx, req.Message, contextBlob, history)

	now := time.Now()
	turns := []persistence.ChatMessage{
		{ID: uuid.NewString(), SessionID: sessionID, Role: "user", Content: req.Message, CreatedAt: now},
		{ID: uuid.NewString(), SessionID: sessionID, Role: "assistant", Content: answer, CreatedAt: now},
	}
	preview := req.Message
	if len(preview) > 200 {
		preview = preview[:200]
	}
	if err := a.Chat.AppendMessages(ctx, tenant, sessionID, turns, preview, a.genModel()); err != nil {
		return ChatResponse{}, fmt.Errorf("ragapi: append history: %w", err)
	}

	return ChatResponse{
		Answer:         answer,
		Sources:        sources,
		FoundDocuments: len(result.Items),
		SessionID:      sessionID,
	}, nil
}

func (a *App) genModel() string {
	if a.Cfg.LLMClient.Provider == "openai" {
		return a.Cfg.OpenAI.Model
	}
	return a.Cfg.LLMClient.Anthropic.Model
}

// ClearHistory deletes the given session's history entirely, per spec.md
// §6's clear-history endpoint. A missing session is treated as already
// cleared.
func (a *App) ClearHistory(ctx context.Context, tenant, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := a.Chat.DeleteSession(ctx, tenant, sessionID)
	if err != nil && err != persistence.ErrNotFound {
		return fmt.Errorf("ragapi: clear history: %w", err)
	}
	return nil
}

// HistoryTurn is a single message surfaced by the history endpoint.
type HistoryTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// History returns the full message list for a session, most recent last.
func (a *App) History(ctx context.Context, tenant, sessionID string) ([]HistoryTurn, error) {
	msgs, err := a.Chat.ListMessages(ctx, tenant, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("ragapi: history: %w", err)
	}
	turns := make([]HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, HistoryTurn{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return turns, nil
}
