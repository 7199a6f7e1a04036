package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested session or message does not exist.
var ErrNotFound = errors.New("persistence: not found")

// ErrForbidden indicates the caller's tenant does not own the requested
// session.
var ErrForbidden = errors.New("persistence: forbidden")

// ChatSessionTTL bounds how long a session memory entry is considered live.
// Sessions untouched for longer are treated as not found by ChatStore
// implementations; this keeps per-tenant memory bounded without an explicit
// reaping pass.
const ChatSessionTTL = 24 * time.Hour

// ChatMessage is a single turn of a chat session's history.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ChatSession is a tenant-scoped conversation thread.
type ChatSession struct {
	ID                  string
	TenantID            string
	Name                string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	LastMessagePreview  string
	Model               string
	Summary             string
	SummarizedCount     int
}

// ChatStore persists session memory: conversation metadata plus the
// message history backing it, scoped by tenant. Every operation is
// tenant-checked: callers can only see or mutate sessions owned by the
// tenant they pass in.
type ChatStore interface {
	Init(ctx context.Context) error

	EnsureSession(ctx context.Context, tenantID, id, name string) (ChatSession, error)
	ListSessions(ctx context.Context, tenantID string) ([]ChatSession, error)
	GetSession(ctx context.Context, tenantID, id string) (ChatSession, error)
	CreateSession(ctx context.Context, tenantID, name string) (ChatSession, error)
	RenameSession(ctx context.Context, tenantID, id, name string) (ChatSession, error)
	DeleteSession(ctx context.Context, tenantID, id string) error

	ListMessages(ctx context.Context, tenantID, sessionID string, limit int) ([]ChatMessage, error)
	AppendMessages(ctx context.Context, tenantID, sessionID string, messages []ChatMessage, preview string, model string) error
	UpdateSummary(ctx context.Context, tenantID, sessionID string, summary string, summarizedCount int) error
}
