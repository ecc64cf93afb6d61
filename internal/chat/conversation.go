package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix namespaces client-generated message ids away from server ids
// so synthetic messages can never collide with a redelivered server message.
const localIDPrefix = "local-"

// Conversation holds the volatile state of the active session: the ordered
// message list, connection and typing flags, the responder mode, and the
// unread marker. It is not safe for concurrent use; the Controller serializes
// access, which gives every operation the run-to-completion atomicity the
// event model assumes.
type Conversation struct {
	messages     []Message
	seen         map[string]struct{}
	connected    bool
	typing       bool
	typingSender Sender
	mode         Mode
	hasUnread    bool
	adminOnline  bool
	panelOpen    bool
	notifier     Notifier
}

// NewConversation creates an empty conversation in AI mode.
func NewConversation(n Notifier) *Conversation {
	if n == nil {
		n = NopNotifier{}
	}
	return &Conversation{
		seen:     make(map[string]struct{}),
		mode:     ModeAI,
		notifier: n,
	}
}

// ApplyStarted replaces the message list wholesale with the server's history
// and adopts the server's mode. Used only at session start/resume. If the
// panel is closed and the last message is not the visitor's own, the unread
// marker is set and a notification fires.
func (c *Conversation) ApplyStarted(p StartedPayload) {
	c.messages = make([]Message, 0, len(p.Messages))
	c.seen = make(map[string]struct{}, len(p.Messages))
	for _, m := range p.Messages {
		if _, dup := c.seen[m.ID]; dup {
			continue
		}
		c.messages = append(c.messages, m)
		c.seen[m.ID] = struct{}{}
	}
	if p.Mode != "" {
		c.mode = p.Mode
	}

	if !c.panelOpen && len(c.messages) > 0 {
		last := c.messages[len(c.messages)-1]
		if last.Sender != SenderVisitor {
			c.hasUnread = true
			c.notifier.Notify(last.Content)
		}
	}
}

// ApplyIncoming appends msg unless its id is already present. Arrival order
// is display order; the list is never reordered by timestamp. Returns whether
// the message was actually appended.
func (c *Conversation) ApplyIncoming(msg Message) bool {
	if _, dup := c.seen[msg.ID]; dup {
		return false
	}
	c.messages = append(c.messages, msg)
	c.seen[msg.ID] = struct{}{}

	if !c.panelOpen && msg.Sender != SenderVisitor {
		c.hasUnread = true
		c.notifier.Notify(msg.Content)
	}
	return true
}

// AppendLocal appends a client-sourced synthetic message. Its id lives in the
// local id space and is never checked against server ids.
func (c *Conversation) AppendLocal(sender Sender, content string) Message {
	msg := Message{
		ID:        localIDPrefix + uuid.NewString(),
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	c.messages = append(c.messages, msg)
	c.seen[msg.ID] = struct{}{}
	return msg
}

// ApplyTyping replaces the typing indicator, last write wins.
func (c *Conversation) ApplyTyping(p TypingPayload) {
	c.typing = p.IsTyping
	c.typingSender = p.Sender
}

// ApplyModeChanged updates the mode and appends a synthetic message
// announcing the hand-off.
func (c *Conversation) ApplyModeChanged(p ModeChangedPayload) {
	c.mode = p.Mode
	content := p.Message
	if content == "" {
		content = fmt.Sprintf("Conversation switched to %s mode", p.Mode)
	}
	c.AppendLocal(SenderAI, content)
}

// ApplyClosed appends the server's farewell as a synthetic AI message.
func (c *Conversation) ApplyClosed(p ClosedPayload) {
	if p.Message == "" {
		return
	}
	c.AppendLocal(SenderAI, p.Message)
}

// ApplyAdminOnline records admin reachability. Used only to phrase UI copy
// and pick the canned human-request message.
func (c *Conversation) ApplyAdminOnline(online bool) {
	c.adminOnline = online
}

// SetConnected records the transport's connection state.
func (c *Conversation) SetConnected(connected bool) {
	c.connected = connected
}

// SetPanelOpen records panel visibility. Opening the panel clears the unread
// marker.
func (c *Conversation) SetPanelOpen(open bool) {
	c.panelOpen = open
	if open {
		c.hasUnread = false
	}
}

// Reset clears the volatile fields for a session switch: messages, typing
// state and unread marker, with the mode back to AI pending server
// correction. Connection state and admin reachability are transport-scoped
// and survive the reset.
func (c *Conversation) Reset() {
	c.messages = nil
	c.seen = make(map[string]struct{})
	c.typing = false
	c.typingSender = ""
	c.mode = ModeAI
	c.hasUnread = false
}

// Messages returns a copy of the ordered message list.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// VisitorMessageCount counts visitor-authored messages.
func (c *Conversation) VisitorMessageCount() int {
	n := 0
	for _, m := range c.messages {
		if m.Sender == SenderVisitor {
			n++
		}
	}
	return n
}

// LastVisitorMessage returns the most recent visitor-authored message.
func (c *Conversation) LastVisitorMessage() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Sender == SenderVisitor {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Connected reports the transport connection state.
func (c *Conversation) Connected() bool { return c.connected }

// Typing returns the typing indicator and who it refers to.
func (c *Conversation) Typing() (bool, Sender) { return c.typing, c.typingSender }

// Mode returns the current responder mode.
func (c *Conversation) Mode() Mode { return c.mode }

// HasUnread reports whether something arrived while the panel was closed.
func (c *Conversation) HasUnread() bool { return c.hasUnread }

// AdminOnline reports admin reachability.
func (c *Conversation) AdminOnline() bool { return c.adminOnline }

// PanelOpen reports panel visibility.
func (c *Conversation) PanelOpen() bool { return c.panelOpen }
