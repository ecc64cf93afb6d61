package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderVisitor Sender = "VISITOR"
	SenderAI      Sender = "AI"
	SenderAdmin   Sender = "ADMIN"
)

// Mode is the server-declared responder type for the current session. The
// client only ever observes it; it changes exclusively via transport events.
type Mode string

const (
	ModeAI   Mode = "AI"
	ModeLive Mode = "LIVE"
)

// Message is one conversational turn. IDs are unique within a session and
// used for de-duplication, since the server may redeliver.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// VisitorInfo is the visitor's contact details, captured at most once per
// browser-equivalent installation and reused across sessions.
type VisitorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HistoryEntry is a local bookmark of a past or abandoned session. It is not
// the session itself; the server remains the source of truth for messages.
type HistoryEntry struct {
	SessionID string    `json:"sessionId"`
	Preview   string    `json:"preview"`
	Date      time.Time `json:"date"`
}

// Event names on the wire, in both directions.
const (
	EventStart       = "chat:start"
	EventMessage     = "chat:message"
	EventVisitorInfo = "chat:visitor_info"

	EventStarted     = "chat:started"
	EventTyping      = "chat:typing"
	EventModeChanged = "chat:mode_changed"
	EventClosed      = "chat:closed"
	EventError       = "chat:error"
	EventAdminStatus = "chat:admin_status"
)

// StartPayload asks the server to start or resume a session.
type StartPayload struct {
	SessionID string `json:"sessionId"`
}

// MessagePayload carries an outbound visitor message.
type MessagePayload struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// VisitorInfoPayload identifies the visitor to the server.
type VisitorInfoPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// StartedPayload is the server's reply to chat:start: the session's current
// mode and full message history.
type StartedPayload struct {
	ConversationID string    `json:"conversationId"`
	Mode           Mode      `json:"mode"`
	Messages       []Message `json:"messages"`
}

// TypingPayload reports a typing-indicator change.
type TypingPayload struct {
	IsTyping bool   `json:"isTyping"`
	Sender   Sender `json:"sender"`
}

// ModeChangedPayload announces an AI/LIVE hand-off with a display message.
type ModeChangedPayload struct {
	Mode    Mode   `json:"mode"`
	Message string `json:"message"`
}

// ClosedPayload carries the farewell message of a closed conversation.
type ClosedPayload struct {
	Message string `json:"message"`
}

// ErrorPayload carries a server-side diagnostic.
type ErrorPayload struct {
	Message string `json:"message"`
}

// AdminStatusPayload reports whether a human admin is currently reachable.
type AdminStatusPayload struct {
	IsOnline bool `json:"isOnline"`
}

// Notifier receives attention-grabbing side effects (popup text plus sound)
// when something arrives while the chat panel is closed.
type Notifier interface {
	Notify(preview string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string) {}
