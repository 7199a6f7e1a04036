package databases

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"singularityio/internal/persistence"
)

func newMemoryChatStore() persistence.ChatStore {
	return &memChatStore{
		sessions: map[string]persistence.ChatSession{},
		messages: map[string][]persistence.ChatMessage{},
	}
}

type memChatStore struct {
	mu       sync.RWMutex
	sessions map[string]persistence.ChatSession
	messages map[string][]persistence.ChatMessage
}

func (s *memChatStore) Init(ctx context.Context) error { return nil }

func expired(sess persistence.ChatSession) bool {
	return time.Since(sess.UpdatedAt) > persistence.ChatSessionTTL
}

// lookupOwned returns the session if it exists, isn't expired, and is owned
// by tenantID. Callers must hold s.mu for reading.
func (s *memChatStore) lookupOwned(tenantID, id string) (persistence.ChatSession, error) {
	sess, ok := s.sessions[id]
	if !ok || expired(sess) {
		return persistence.ChatSession{}, persistence.ErrNotFound
	}
	if sess.TenantID != tenantID {
		return persistence.ChatSession{}, persistence.ErrForbidden
	}
	return sess, nil
}

func (s *memChatStore) EnsureSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return persistence.ChatSession{}, errors.New("id required")
	}
	if strings.TrimSpace(name) == "" {
		name = "New Chat"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && !expired(sess) {
		if sess.TenantID != tenantID {
			return persistence.ChatSession{}, persistence.ErrForbidden
		}
		return sess, nil
	}
	now := time.Now().UTC()
	sess := persistence.ChatSession{ID: id, Name: name, TenantID: tenantID, CreatedAt: now, UpdatedAt: now}
	s.sessions[id] = sess
	s.messages[id] = nil
	return sess, nil
}

func (s *memChatStore) ListSessions(ctx context.Context, tenantID string) ([]persistence.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.TenantID != tenantID || expired(sess) {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *memChatStore) GetSession(ctx context.Context, tenantID, id string) (persistence.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupOwned(tenantID, id)
}

func (s *memChatStore) CreateSession(ctx context.Context, tenantID, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(name) == "" {
		name = "New Chat"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now().UTC()
	sess := persistence.ChatSession{ID: id, Name: name, TenantID: tenantID, CreatedAt: now, UpdatedAt: now}
	s.sessions[id] = sess
	s.messages[id] = nil
	return sess, nil
}

func (s *memChatStore) RenameSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(name) == "" {
		return persistence.ChatSession{}, errors.New("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupOwned(tenantID, id)
	if err != nil {
		return persistence.ChatSession{}, err
	}
	sess.Name = name
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[id] = sess
	return sess, nil
}

func (s *memChatStore) DeleteSession(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookupOwned(tenantID, id); err != nil {
		return err
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

func (s *memChatStore) ListMessages(ctx context.Context, tenantID, sessionID string, limit int) ([]persistence.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.lookupOwned(tenantID, sessionID); err != nil {
		return nil, err
	}
	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	log.Info().Str("session_id", sessionID).Int("count", len(msgs)).Msg("mem_store_list_messages")
	out := make([]persistence.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *memChatStore) AppendMessages(ctx context.Context, tenantID, sessionID string, messages []persistence.ChatMessage, preview string, model string) error {
	log.Info().Str("session_id", sessionID).Int("count", len(messages)).Msg("mem_store_append_messages")
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupOwned(tenantID, sessionID)
	if err != nil {
		return err
	}
	for i := range messages {
		if messages[i].ID == "" {
			messages[i].ID = uuid.NewString()
		}
		if messages[i].SessionID == "" {
			messages[i].SessionID = sessionID
		}
		if messages[i].CreatedAt.IsZero() {
			messages[i].CreatedAt = time.Now().UTC()
		}
	}
	s.messages[sessionID] = append(s.messages[sessionID], messages...)
	sess.UpdatedAt = time.Now().UTC()
	sess.LastMessagePreview = preview
	if strings.TrimSpace(model) != "" {
		sess.Model = model
	}
	s.sessions[sessionID] = sess
	return nil
}

func (s *memChatStore) UpdateSummary(ctx context.Context, tenantID, sessionID string, summary string, summarizedCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupOwned(tenantID, sessionID)
	if err != nil {
		return err
	}
	sess.Summary = summary
	sess.SummarizedCount = summarizedCount
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = sess
	return nil
}
