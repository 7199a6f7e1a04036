package databases

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"singularityio/internal/observability"
	"singularityio/internal/persistence"
)

// NewPostgresChatStore returns a Postgres-backed chat history store.
func NewPostgresChatStore(pool *pgxpool.Pool) persistence.ChatStore {
	return &pgChatStore{pool: pool}
}

type pgChatStore struct {
	pool *pgxpool.Pool
}

func (s *pgChatStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *pgChatStore) Init(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres chat store requires pool")
	}
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS chat_sessions (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_message_preview TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    summarized_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id UUID PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS chat_messages_session_created_idx ON chat_messages(session_id, created_at);

ALTER TABLE chat_sessions
    ADD COLUMN IF NOT EXISTS summary TEXT NOT NULL DEFAULT '';

ALTER TABLE chat_sessions
    ADD COLUMN IF NOT EXISTS summarized_count INTEGER NOT NULL DEFAULT 0;

ALTER TABLE chat_sessions
    ADD COLUMN IF NOT EXISTS tenant_id TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS chat_sessions_tenant_updated_idx ON chat_sessions(tenant_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS chat_sessions_tenant_created_idx ON chat_sessions(tenant_id, created_at DESC);
`)
	return err
}

func (s *pgChatStore) scanSession(row pgx.Row) (persistence.ChatSession, error) {
	var cs persistence.ChatSession
	var tenant sql.NullString
	if err := row.Scan(&cs.ID, &cs.Name, &tenant, &cs.CreatedAt, &cs.UpdatedAt, &cs.LastMessagePreview, &cs.Model, &cs.Summary, &cs.SummarizedCount); err != nil {
		return persistence.ChatSession{}, err
	}
	cs.TenantID = tenant.String
	return cs, nil
}

func (s *pgChatStore) lookupOwned(ctx context.Context, tenantID, id string) (persistence.ChatSession, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count
FROM chat_sessions
WHERE id = $1`, id)
	cs, err := s.scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return persistence.ChatSession{}, persistence.ErrNotFound
		}
		return persistence.ChatSession{}, err
	}
	if time.Since(cs.UpdatedAt) > persistence.ChatSessionTTL {
		return persistence.ChatSession{}, persistence.ErrNotFound
	}
	if cs.TenantID != tenantID {
		return persistence.ChatSession{}, persistence.ErrForbidden
	}
	return cs, nil
}

func (s *pgChatStore) EnsureSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return persistence.ChatSession{}, errors.New("id required")
	}
	if strings.TrimSpace(name) == "" {
		name = "New Chat"
	}
	row := s.pool.QueryRow(ctx, `
WITH ins AS (
  INSERT INTO chat_sessions (id, tenant_id, name)
  VALUES ($1, $2, $3)
  ON CONFLICT (id) DO NOTHING
  RETURNING id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count
)
SELECT id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count FROM ins
UNION ALL
SELECT id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count FROM chat_sessions WHERE id = $1
LIMIT 1`, id, tenantID, name)
	cs, err := s.scanSession(row)
	if err != nil {
		return persistence.ChatSession{}, err
	}
	if cs.TenantID != tenantID {
		return persistence.ChatSession{}, persistence.ErrForbidden
	}
	return cs, nil
}

func (s *pgChatStore) ListSessions(ctx context.Context, tenantID string) ([]persistence.ChatSession, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count
FROM chat_sessions
WHERE tenant_id = $1
ORDER BY updated_at DESC, created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.ChatSession
	for rows.Next() {
		cs, err := s.scanSession(rows)
		if err != nil {
			return nil, err
		}
		if time.Since(cs.UpdatedAt) > persistence.ChatSessionTTL {
			continue
		}
		out = append(out, cs)
	}
	if out == nil {
		out = make([]persistence.ChatSession, 0)
	}
	return out, rows.Err()
}

func (s *pgChatStore) GetSession(ctx context.Context, tenantID, id string) (persistence.ChatSession, error) {
	log := observability.LoggerWithTrace(ctx)
	cs, err := s.lookupOwned(ctx, tenantID, id)
	if err != nil {
		log.Debug().Err(err).Str("session_id", id).Msg("get_session_failed")
		return persistence.ChatSession{}, err
	}
	log.Debug().Str("session_id", id).Msg("get_session_found")
	return cs, nil
}

func (s *pgChatStore) CreateSession(ctx context.Context, tenantID, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(name) == "" {
		name = "New Chat"
	}
	id := uuid.New()
	row := s.pool.QueryRow(ctx, `
INSERT INTO chat_sessions (id, tenant_id, name)
VALUES ($1, $2, $3)
RETURNING id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count`, id, tenantID, name)
	return s.scanSession(row)
}

func (s *pgChatStore) RenameSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	if strings.TrimSpace(name) == "" {
		return persistence.ChatSession{}, errors.New("name required")
	}
	if _, err := s.lookupOwned(ctx, tenantID, id); err != nil {
		return persistence.ChatSession{}, err
	}
	row := s.pool.QueryRow(ctx, `
UPDATE chat_sessions
SET name = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, name, tenant_id, created_at, updated_at, last_message_preview, model, summary, summarized_count`, id, name)
	return s.scanSession(row)
}

func (s *pgChatStore) DeleteSession(ctx context.Context, tenantID, id string) error {
	if _, err := s.lookupOwned(ctx, tenantID, id); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	return err
}

func (s *pgChatStore) ListMessages(ctx context.Context, tenantID, sessionID string, limit int) ([]persistence.ChatMessage, error) {
	log := observability.LoggerWithTrace(ctx)
	log.Debug().Str("session_id", sessionID).Int("limit", limit).Msg("list_messages_start")
	if _, err := s.lookupOwned(ctx, tenantID, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("list_messages_get_session_failed")
		return nil, err
	}
	query := `
SELECT id, session_id, role, content, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC, id ASC`
	args := []any{sessionID}
	if limit > 0 {
		query = `
SELECT id, session_id, role, content, created_at FROM (
    SELECT id, session_id, role, content, created_at
    FROM chat_messages
    WHERE session_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT $2
) sub
ORDER BY created_at ASC, id ASC`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []persistence.ChatMessage
	for rows.Next() {
		var msg persistence.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if out == nil {
		out = make([]persistence.ChatMessage, 0)
	}
	log.Debug().Str("session_id", sessionID).Int("message_count", len(out)).Msg("list_messages_complete")
	return out, rows.Err()
}

func (s *pgChatStore) AppendMessages(ctx context.Context, tenantID, sessionID string, messages []persistence.ChatMessage, preview string, model string) error {
	if len(messages) == 0 {
		return nil
	}
	if _, err := s.lookupOwned(ctx, tenantID, sessionID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, message := range messages {
		id := message.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := message.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO chat_messages (id, session_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`, id, sessionID, message.Role, message.Content, createdAt); err != nil {
			return err
		}
	}

	modelUpdate := strings.TrimSpace(model)
	cmd, err := tx.Exec(ctx, `
UPDATE chat_sessions
SET updated_at = NOW(),
    last_message_preview = $2,
    model = CASE WHEN $3 = '' THEN model ELSE $3 END
WHERE id = $1 AND tenant_id = $4`, sessionID, preview, modelUpdate, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return persistence.ErrForbidden
	}

	return tx.Commit(ctx)
}

func (s *pgChatStore) UpdateSummary(ctx context.Context, tenantID, sessionID string, summary string, summarizedCount int) error {
	if _, err := s.lookupOwned(ctx, tenantID, sessionID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
UPDATE chat_sessions
SET summary = $2, summarized_count = $3, updated_at = NOW()
WHERE id = $1 AND tenant_id = $4`, sessionID, summary, summarizedCount, tenantID)
	return err
}
