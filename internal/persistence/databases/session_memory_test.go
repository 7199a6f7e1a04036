package databases

import (
	"context"
	"testing"

	"singularityio/internal/persistence"
)

func TestSessionMemory_AppendVisibleImmediatelyInRing(t *testing.T) {
	durable := newMemoryChatStore()
	ctx := context.Background()
	const tenant = "t1"

	if _, err := durable.CreateSession(ctx, tenant, "s"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	sessions, err := durable.ListSessions(ctx, tenant)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %v err=%v", sessions, err)
	}
	sessionID := sessions[0].ID

	sm := NewSessionMemory(durable, 5, 2)
	defer sm.Close()

	if err := sm.AppendMessages(ctx, tenant, sessionID, []persistence.ChatMessage{
		{Role: "user", Content: "hi"},
	}, "hi", "m"); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := sm.ListMessages(ctx, tenant, sessionID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("expected ring hit with the just-appended message, got %#v", msgs)
	}
}

func TestSessionMemory_RingEvictsBeyondSize(t *testing.T) {
	durable := newMemoryChatStore()
	ctx := context.Background()
	const tenant = "t1"

	durable.CreateSession(ctx, tenant, "s")
	sessions, _ := durable.ListSessions(ctx, tenant)
	sessionID := sessions[0].ID

	sm := NewSessionMemory(durable, 2, 2)
	defer sm.Close()

	for i := 0; i < 3; i++ {
		if err := sm.AppendMessages(ctx, tenant, sessionID, []persistence.ChatMessage{
			{Role: "user", Content: string(rune('a' + i))},
		}, "", ""); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := sm.ListMessages(ctx, tenant, sessionID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "b" || msgs[1].Content != "c" {
		t.Fatalf("expected ring to hold only the last 2 messages, got %#v", msgs)
	}
}

func TestSessionMemory_DurableAppendEventuallyPersists(t *testing.T) {
	durable := newMemoryChatStore()
	ctx := context.Background()
	const tenant = "t1"

	durable.CreateSession(ctx, tenant, "s")
	sessions, _ := durable.ListSessions(ctx, tenant)
	sessionID := sessions[0].ID

	sm := NewSessionMemory(durable, 20, 2)

	if err := sm.AppendMessages(ctx, tenant, sessionID, []persistence.ChatMessage{
		{Role: "user", Content: "persisted"},
	}, "persisted", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	sm.Close() // waits for background workers to drain

	msgs, err := durable.ListMessages(ctx, tenant, sessionID, 0)
	if err != nil {
		t.Fatalf("list from durable: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "persisted" {
		t.Fatalf("expected durable store to have the message after Close, got %#v", msgs)
	}
}
