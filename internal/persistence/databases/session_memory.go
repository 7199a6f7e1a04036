package databases

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"singularityio/internal/persistence"
)

const defaultRingSize = 20

// SessionMemory wraps a durable persistence.ChatStore with a bounded
// in-process ring buffer of the last ringSize messages per session, so
// reads for an active conversation never hit the durable store, and a
// small worker pool that persists appends in the background so request
// handlers don't block on it.
type SessionMemory struct {
	durable  persistence.ChatStore
	ringSize int

	mu   sync.Mutex
	ring map[string][]persistence.ChatMessage

	work chan func()
	wg   sync.WaitGroup
}

// NewSessionMemory wraps durable with a ring buffer of ringSize messages per
// session (defaultRingSize when <= 0), backed by workers background workers
// for durable writes (2 when <= 0).
func NewSessionMemory(durable persistence.ChatStore, ringSize, workers int) *SessionMemory {
	if ringSize <= 0 {
		ringSize = defaultRingSize
	}
	if workers <= 0 {
		workers = 2
	}
	m := &SessionMemory{
		durable:  durable,
		ringSize: ringSize,
		ring:     make(map[string][]persistence.ChatMessage),
		work:     make(chan func(), 256),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.runWorker()
	}
	return m
}

func (m *SessionMemory) runWorker() {
	defer m.wg.Done()
	for fn := range m.work {
		fn()
	}
}

// Close stops accepting new background work, waits for in-flight durable
// writes to finish, and closes the durable store if it supports it.
func (m *SessionMemory) Close() {
	close(m.work)
	m.wg.Wait()
	if c, ok := m.durable.(interface{ Close() }); ok {
		c.Close()
	}
}

func ringKey(tenantID, sessionID string) string { return tenantID + "\x00" + sessionID }

// AppendMessages appends to the in-process ring synchronously, so a
// subsequent ListMessages in this process sees the new turns immediately,
// then enqueues the durable write. If the worker pool is saturated it
// writes through synchronously instead of dropping the append.
func (m *SessionMemory) AppendMessages(ctx context.Context, tenantID, sessionID string, messages []persistence.ChatMessage, preview, model string) error {
	if len(messages) == 0 {
		return nil
	}
	m.mu.Lock()
	key := ringKey(tenantID, sessionID)
	buf := append(m.ring[key], messages...)
	if len(buf) > m.ringSize {
		buf = buf[len(buf)-m.ringSize:]
	}
	m.ring[key] = buf
	m.mu.Unlock()

	bgCtx := context.WithoutCancel(ctx)
	persist := func() {
		if err := m.durable.AppendMessages(bgCtx, tenantID, sessionID, messages, preview, model); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("session_memory_durable_append_failed")
		}
	}
	select {
	case m.work <- persist:
	default:
		persist()
	}
	return nil
}

// ListMessages serves from the in-process ring when it already holds at
// least `limit` messages; otherwise it falls through to the durable store.
func (m *SessionMemory) ListMessages(ctx context.Context, tenantID, sessionID string, limit int) ([]persistence.ChatMessage, error) {
	m.mu.Lock()
	buf := m.ring[ringKey(tenantID, sessionID)]
	m.mu.Unlock()
	if limit > 0 && limit <= len(buf) {
		out := make([]persistence.ChatMessage, limit)
		copy(out, buf[len(buf)-limit:])
		return out, nil
	}
	return m.durable.ListMessages(ctx, tenantID, sessionID, limit)
}

func (m *SessionMemory) Init(ctx context.Context) error { return m.durable.Init(ctx) }

func (m *SessionMemory) EnsureSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	return m.durable.EnsureSession(ctx, tenantID, id, name)
}

func (m *SessionMemory) ListSessions(ctx context.Context, tenantID string) ([]persistence.ChatSession, error) {
	return m.durable.ListSessions(ctx, tenantID)
}

func (m *SessionMemory) GetSession(ctx context.Context, tenantID, id string) (persistence.ChatSession, error) {
	return m.durable.GetSession(ctx, tenantID, id)
}

func (m *SessionMemory) CreateSession(ctx context.Context, tenantID, name string) (persistence.ChatSession, error) {
	return m.durable.CreateSession(ctx, tenantID, name)
}

func (m *SessionMemory) RenameSession(ctx context.Context, tenantID, id, name string) (persistence.ChatSession, error) {
	return m.durable.RenameSession(ctx, tenantID, id, name)
}

func (m *SessionMemory) DeleteSession(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	delete(m.ring, ringKey(tenantID, id))
	m.mu.Unlock()
	return m.durable.DeleteSession(ctx, tenantID, id)
}

func (m *SessionMemory) UpdateSummary(ctx context.Context, tenantID, sessionID, summary string, summarizedCount int) error {
	return m.durable.UpdateSummary(ctx, tenantID, sessionID, summary, summarizedCount)
}
