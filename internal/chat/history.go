package chat

import (
	"time"

	"github.com/mursalin-dev/chatkit/internal/storage"
)

const (
	// DefaultHistoryLimit bounds the local history list.
	DefaultHistoryLimit = 20

	previewMaxLen   = 80
	previewFallback = "New conversation"
)

// historyStore keeps the bounded, most-recent-first list of past sessions in
// the persistent store. One entry per session id; archiving an id that is
// already present moves it back to the front.
type historyStore struct {
	store storage.Store
	limit int
}

func newHistoryStore(s storage.Store, limit int) *historyStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &historyStore{store: s, limit: limit}
}

// load reads the history list, tolerating absent or malformed data.
func (h *historyStore) load() []HistoryEntry {
	var entries []HistoryEntry
	storage.GetJSON(h.store, keyHistory, &entries)
	return entries
}

func (h *historyStore) save(entries []HistoryEntry) {
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	storage.SetJSON(h.store, keyHistory, entries)
}

// upsert places entry at the front, removing any prior entry for the same
// session id so the list stays most-recently-active first.
func (h *historyStore) upsert(entry HistoryEntry) {
	entries := h.load()
	out := make([]HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	for _, e := range entries {
		if e.SessionID != entry.SessionID {
			out = append(out, e)
		}
	}
	h.save(out)
}

// contains reports whether an entry for the session id exists.
func (h *historyStore) contains(sessionID string) bool {
	for _, e := range h.load() {
		if e.SessionID == sessionID {
			return true
		}
	}
	return false
}

// remove deletes the entry for the session id, if present.
func (h *historyStore) remove(sessionID string) {
	entries := h.load()
	out := entries[:0]
	for _, e := range entries {
		if e.SessionID != sessionID {
			out = append(out, e)
		}
	}
	h.save(out)
}

// LoadHistory reads the persisted history list directly from a store. For
// tooling that inspects local state without a live controller.
func LoadHistory(s storage.Store) []HistoryEntry {
	return newHistoryStore(s, 0).load()
}

// RemoveHistoryEntry deletes a history entry directly from a store,
// reporting whether it existed.
func RemoveHistoryEntry(s storage.Store, sessionID string) bool {
	h := newHistoryStore(s, 0)
	if !h.contains(sessionID) {
		return false
	}
	h.remove(sessionID)
	return true
}

// previewOf derives the history preview for a conversation: the first 80
// characters of the last visitor message, or a fixed fallback when the
// visitor never wrote anything.
func previewOf(c *Conversation) string {
	msg, ok := c.LastVisitorMessage()
	if !ok {
		return previewFallback
	}
	runes := []rune(msg.Content)
	if len(runes) > previewMaxLen {
		return string(runes[:previewMaxLen])
	}
	return msg.Content
}

// entryFor snapshots the active conversation into a history entry.
func entryFor(sessionID string, c *Conversation) HistoryEntry {
	return HistoryEntry{
		SessionID: sessionID,
		Preview:   previewOf(c),
		Date:      time.Now(),
	}
}
