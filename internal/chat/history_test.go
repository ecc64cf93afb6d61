package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mursalin-dev/chatkit/internal/storage"
)

func TestHistoryBound(t *testing.T) {
	h := newHistoryStore(storage.NewMemoryStore(), 20)

	for i := 0; i < 25; i++ {
		h.upsert(HistoryEntry{
			SessionID: fmt.Sprintf("session-%d", i),
			Preview:   fmt.Sprintf("preview %d", i),
			Date:      time.Now(),
		})
	}

	entries := h.load()
	if len(entries) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(entries))
	}
	// Most recent first: 24 down to 5
	if entries[0].SessionID != "session-24" {
		t.Errorf("front entry = %q, want session-24", entries[0].SessionID)
	}
	if entries[19].SessionID != "session-5" {
		t.Errorf("back entry = %q, want session-5", entries[19].SessionID)
	}
}

func TestHistoryUpsertNotDuplicate(t *testing.T) {
	h := newHistoryStore(storage.NewMemoryStore(), 20)

	h.upsert(HistoryEntry{SessionID: "a", Preview: "first", Date: time.Now()})
	h.upsert(HistoryEntry{SessionID: "b", Preview: "other", Date: time.Now()})
	h.upsert(HistoryEntry{SessionID: "a", Preview: "updated", Date: time.Now()})

	entries := h.load()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Re-archiving moves the entry back to the front with the latest preview
	if entries[0].SessionID != "a" || entries[0].Preview != "updated" {
		t.Errorf("front entry = %+v, want updated a", entries[0])
	}
	if entries[1].SessionID != "b" {
		t.Errorf("back entry = %q, want b", entries[1].SessionID)
	}
}

func TestHistoryRemove(t *testing.T) {
	h := newHistoryStore(storage.NewMemoryStore(), 20)
	h.upsert(HistoryEntry{SessionID: "a", Preview: "x", Date: time.Now()})
	h.upsert(HistoryEntry{SessionID: "b", Preview: "y", Date: time.Now()})

	h.remove("a")
	entries := h.load()
	if len(entries) != 1 || entries[0].SessionID != "b" {
		t.Errorf("entries after remove = %+v", entries)
	}

	// Removing an absent id is a no-op
	h.remove("nope")
	if len(h.load()) != 1 {
		t.Error("removing an absent id changed the list")
	}
}

func TestPreviewOf(t *testing.T) {
	t.Run("last visitor message wins", func(t *testing.T) {
		c := NewConversation(nil)
		c.ApplyIncoming(msg("m1", SenderVisitor, "first question"))
		c.ApplyIncoming(msg("m2", SenderAI, "answer"))
		c.ApplyIncoming(msg("m3", SenderVisitor, "follow-up"))
		c.ApplyIncoming(msg("m4", SenderAI, "more answer"))

		if got := previewOf(c); got != "follow-up" {
			t.Errorf("preview = %q, want %q", got, "follow-up")
		}
	})

	t.Run("truncated to 80 characters", func(t *testing.T) {
		c := NewConversation(nil)
		long := strings.Repeat("x", 200)
		c.ApplyIncoming(msg("m1", SenderVisitor, long))

		got := previewOf(c)
		if len([]rune(got)) != previewMaxLen {
			t.Errorf("preview length = %d, want %d", len([]rune(got)), previewMaxLen)
		}
	})

	t.Run("fallback when no visitor message", func(t *testing.T) {
		c := NewConversation(nil)
		c.ApplyIncoming(msg("m1", SenderAI, "proactive hello"))

		if got := previewOf(c); got != previewFallback {
			t.Errorf("preview = %q, want fallback", got)
		}
	})
}
