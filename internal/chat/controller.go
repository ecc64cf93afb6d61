package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mursalin-dev/chatkit/internal/storage"
	"github.com/mursalin-dev/chatkit/internal/transport"
)

// Persisted keys.
const (
	keySessionID   = "chat.session_id"
	keyVisitorInfo = "chat.visitor_info"
	keyHistory     = "chat.history"
)

const (
	// DefaultProactiveDelay is how long the client waits before starting the
	// session unsolicited, when the visitor never opened the panel.
	DefaultProactiveDelay = 10 * time.Second
	// DefaultSoftPromptThreshold is the visitor-message count that triggers
	// the soft lead prompt.
	DefaultSoftPromptThreshold = 5
)

// ErrNotConnected is returned when an operation needs a live connection.
var ErrNotConnected = errors.New("chat: not connected")

// ErrNoLeadForm is returned when a lead-form operation arrives with no prompt
// showing, including submissions that target a no-longer-active session.
var ErrNoLeadForm = errors.New("chat: no lead form showing")

// Options configures a Controller.
type Options struct {
	Store     storage.Store
	Transport transport.Transport
	Notifier  Notifier
	Logger    *log.Logger

	ProactiveDelay      time.Duration
	SoftPromptThreshold int
	HistoryLimit        int
}

// Controller is the visitor-side chat session service: one instance per
// process, constructed once and handed to the UI by reference. It owns the
// session id, the at-most-one-start-per-connection guarantee, the proactive
// engagement timer, the conversation state, lead capture and local history.
//
// A single mutex serializes every transition, so check-then-set guards such
// as the started flag are race-free; any guard that matters is re-checked
// after an asynchronous hop (reconnects re-enter through handleConnect).
type Controller struct {
	logger    *log.Logger
	store     storage.Store
	transport transport.Transport
	history   *historyStore

	softThreshold  int
	proactiveDelay time.Duration

	mu   sync.Mutex
	conv *Conversation
	lead leadForm

	sessionID   string
	startWanted bool // a start trigger has fired for this session
	started     bool // chat:start emitted in the current connection epoch

	visitor    VisitorInfo
	hasVisitor bool

	proactiveTimer *time.Timer
	closed         bool

	onChange func()
}

// New constructs the controller: it hydrates persisted state (session id,
// visitor info), wires transport handlers, and arms the proactive-engagement
// timer. Call Connect to go online and Close to tear everything down.
func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("chat: Options.Store is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("chat: Options.Transport is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.ProactiveDelay <= 0 {
		opts.ProactiveDelay = DefaultProactiveDelay
	}
	if opts.SoftPromptThreshold <= 0 {
		opts.SoftPromptThreshold = DefaultSoftPromptThreshold
	}

	c := &Controller{
		logger:         opts.Logger,
		store:          opts.Store,
		transport:      opts.Transport,
		history:        newHistoryStore(opts.Store, opts.HistoryLimit),
		softThreshold:  opts.SoftPromptThreshold,
		proactiveDelay: opts.ProactiveDelay,
		conv:           NewConversation(opts.Notifier),
		lead:           newLeadForm(),
	}

	// Resume the persisted session id, or mint a new one.
	if id, ok := c.store.Get(keySessionID); ok && id != "" {
		c.sessionID = id
	} else {
		c.sessionID = uuid.NewString()
		c.store.Set(keySessionID, c.sessionID)
	}

	var info VisitorInfo
	if storage.GetJSON(c.store, keyVisitorInfo, &info) && info.Email != "" {
		c.visitor = info
		c.hasVisitor = true
	}

	t := c.transport
	t.On(EventStarted, decode(c.logger, EventStarted, c.handleStarted))
	t.On(EventMessage, decode(c.logger, EventMessage, c.handleIncoming))
	t.On(EventTyping, decode(c.logger, EventTyping, c.handleTyping))
	t.On(EventModeChanged, decode(c.logger, EventModeChanged, c.handleModeChanged))
	t.On(EventClosed, decode(c.logger, EventClosed, c.handleClosed))
	t.On(EventError, decode(c.logger, EventError, c.handleError))
	t.On(EventAdminStatus, decode(c.logger, EventAdminStatus, c.handleAdminStatus))
	t.OnConnect(c.handleConnect)
	t.OnDisconnect(c.handleDisconnect)

	c.proactiveTimer = time.AfterFunc(c.proactiveDelay, c.proactiveFire)

	return c, nil
}

// decode unmarshals a raw transport payload before invoking fn.
func decode[T any](logger *log.Logger, event string, fn func(T)) transport.Handler {
	return func(raw json.RawMessage) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			logger.Warn("failed to decode event payload", "event", event, "error", err)
			return
		}
		fn(payload)
	}
}

// Connect brings the transport online. Non-blocking; the session starts once
// the connection is up and a start trigger has fired.
func (c *Controller) Connect(ctx context.Context) error {
	return c.transport.Connect(ctx)
}

// Close cancels the proactive timer and disconnects the transport. The
// controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.proactiveTimer != nil {
		c.proactiveTimer.Stop()
	}
	c.mu.Unlock()

	c.transport.Disconnect()
}

// SetOnChange registers a callback invoked after every externally visible
// state change. Used by UIs to re-render from Snapshot.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// tryStartLocked emits chat:start when a trigger has fired, the connection is
// live, and no start has been emitted in this connection epoch. This is the
// single NotStarted -> Started transition; every trigger funnels through it
// so concurrent triggers collapse to one emission.
func (c *Controller) tryStartLocked() {
	if c.started || !c.startWanted || !c.transport.Connected() {
		return
	}
	c.started = true
	c.logger.Debug("starting session", "session_id", c.sessionID)
	c.transport.Emit(EventStart, StartPayload{SessionID: c.sessionID})
}

// proactiveFire is trigger (b): the engagement timer elapsed before the
// visitor ever opened the panel.
func (c *Controller) proactiveFire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.startWanted = true
	c.tryStartLocked()
	c.mu.Unlock()
	c.changed()
}

// handleConnect runs on every successful connection, including reconnects. A
// new connection is a new epoch: the started flag resets, and if the session
// had previously wanted a start it is re-issued so the server can replay
// anything sent while offline.
func (c *Controller) handleConnect() {
	c.mu.Lock()
	c.conv.SetConnected(true)
	c.started = false
	c.tryStartLocked()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleDisconnect() {
	c.mu.Lock()
	c.conv.SetConnected(false)
	c.started = false
	c.mu.Unlock()
	c.changed()
}

// OpenPanel is trigger (a): the visitor opened the chat panel. It clears the
// unread marker and starts the session if it never started.
func (c *Controller) OpenPanel() {
	c.mu.Lock()
	c.conv.SetPanelOpen(true)
	c.startWanted = true
	c.tryStartLocked()
	c.mu.Unlock()
	c.changed()
}

// ClosePanel records that the panel is hidden again.
func (c *Controller) ClosePanel() {
	c.mu.Lock()
	c.conv.SetPanelOpen(false)
	c.mu.Unlock()
	c.changed()
}

// SendMessage sends a visitor message. Whitespace-only input is ignored; the
// message appears in the conversation when the server echoes it back.
func (c *Controller) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.conv.Connected() {
		return ErrNotConnected
	}
	c.transport.Emit(EventMessage, MessagePayload{SessionID: c.sessionID, Content: text})
	return nil
}

// RequestHuman asks for a human hand-off. With visitor info already on file
// the prompt is bypassed: the info is re-sent, then the canned request goes
// out. Otherwise the escalation prompt opens.
func (c *Controller) RequestHuman() error {
	c.mu.Lock()
	if c.hasVisitor {
		if !c.conv.Connected() {
			c.mu.Unlock()
			return ErrNotConnected
		}
		c.emitVisitorInfoLocked()
		c.transport.Emit(EventMessage, MessagePayload{
			SessionID: c.sessionID,
			Content:   humanRequestText(c.conv.AdminOnline()),
		})
		c.mu.Unlock()
		c.changed()
		return nil
	}
	c.lead.openEscalation(c.sessionID)
	c.mu.Unlock()
	c.changed()
	return nil
}

// SubmitLeadForm handles a lead-form submission. The visitor info is
// persisted for all future sessions, sent to the server, and the prompt
// closes with the soft prompt permanently dismissed for this session. In
// escalation mode the optional question goes out first, then the canned
// human request; in soft mode nothing is sent, a local thank-you is appended
// instead. Submissions whose form targets a replaced session are ignored.
func (c *Controller) SubmitLeadForm(name, email, question string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return errors.New("chat: name and email are required")
	}

	c.mu.Lock()
	if c.lead.mode == LeadFormNone || c.lead.sessionID != c.sessionID {
		c.mu.Unlock()
		return ErrNoLeadForm
	}
	mode := c.lead.mode

	c.visitor = VisitorInfo{Name: name, Email: email}
	c.hasVisitor = true
	storage.SetJSON(c.store, keyVisitorInfo, c.visitor)
	c.emitVisitorInfoLocked()

	c.lead.close()

	switch mode {
	case LeadFormEscalation:
		if q := strings.TrimSpace(question); q != "" {
			c.transport.Emit(EventMessage, MessagePayload{SessionID: c.sessionID, Content: q})
		}
		c.transport.Emit(EventMessage, MessagePayload{
			SessionID: c.sessionID,
			Content:   humanRequestText(c.conv.AdminOnline()),
		})
	case LeadFormSoft:
		c.conv.AppendLocal(SenderAI, fmt.Sprintf(
			"Thanks %s! I'll make sure Mursalin can reach you. Feel free to keep chatting in the meantime.", name))
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// DismissLeadForm closes the prompt without a submission.
func (c *Controller) DismissLeadForm() {
	c.mu.Lock()
	c.lead.dismiss()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) emitVisitorInfoLocked() {
	c.transport.Emit(EventVisitorInfo, VisitorInfoPayload{
		SessionID: c.sessionID,
		Name:      c.visitor.Name,
		Email:     c.visitor.Email,
	})
}

// ResetChat archives the current session and starts a fresh one under a new
// id, immediately, without waiting for the next panel open.
func (c *Controller) ResetChat() {
	c.mu.Lock()
	c.replaceSessionLocked(uuid.NewString())
	c.mu.Unlock()
	c.changed()
}

// LoadConversation archives the current session and resumes the target one.
// The server supplies the target's messages via chat:started.
func (c *Controller) LoadConversation(sessionID string) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	if sessionID == c.sessionID {
		c.mu.Unlock()
		return
	}
	c.replaceSessionLocked(sessionID)
	c.mu.Unlock()
	c.changed()
}

// replaceSessionLocked swaps the active session id: archive the old session,
// clear volatile state, reset the lifecycle to NotStarted for the new id, and
// re-trigger the start right away.
func (c *Controller) replaceSessionLocked(newID string) {
	c.archiveCurrentLocked()
	c.sessionID = newID
	c.store.Set(keySessionID, newID)
	c.conv.Reset()
	c.lead.reset()
	c.started = false
	c.startWanted = true
	c.tryStartLocked()
}

// archiveCurrentLocked snapshots the active session into history. Sessions
// with no messages leave no trace.
func (c *Controller) archiveCurrentLocked() {
	if c.conv.Len() == 0 {
		return
	}
	c.history.upsert(entryFor(c.sessionID, c.conv))
}

// History returns the local conversation history, most recent first.
func (c *Controller) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.load()
}

// DeleteHistory removes a history entry. It never touches a live session,
// even when the id matches the active one.
func (c *Controller) DeleteHistory(sessionID string) {
	c.mu.Lock()
	c.history.remove(sessionID)
	c.mu.Unlock()
	c.changed()
}

// Inbound event handlers. Each runs to completion under the controller lock.

func (c *Controller) handleStarted(p StartedPayload) {
	c.mu.Lock()
	c.conv.ApplyStarted(p)
	c.refreshHistoryLocked()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleIncoming(msg Message) {
	c.mu.Lock()
	appended := c.conv.ApplyIncoming(msg)
	if appended && msg.Sender == SenderVisitor {
		c.lead.maybeTriggerSoft(c.conv.VisitorMessageCount(), c.softThreshold, c.hasVisitor, c.sessionID)
		c.refreshHistoryLocked()
	}
	c.mu.Unlock()
	if appended {
		c.changed()
	}
}

// refreshHistoryLocked keeps an already-archived entry's preview current
// while its session is active again. Sessions never archived stay out of
// history until abandoned.
func (c *Controller) refreshHistoryLocked() {
	if c.conv.Len() == 0 || !c.history.contains(c.sessionID) {
		return
	}
	c.history.upsert(entryFor(c.sessionID, c.conv))
}

func (c *Controller) handleTyping(p TypingPayload) {
	c.mu.Lock()
	c.conv.ApplyTyping(p)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleModeChanged(p ModeChangedPayload) {
	c.mu.Lock()
	c.conv.ApplyModeChanged(p)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleClosed(p ClosedPayload) {
	c.mu.Lock()
	c.conv.ApplyClosed(p)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleError(p ErrorPayload) {
	// Diagnostic only; server errors never alter session state.
	c.logger.Warn("chat service reported an error", "message", p.Message)
}

func (c *Controller) handleAdminStatus(p AdminStatusPayload) {
	c.mu.Lock()
	c.conv.ApplyAdminOnline(p.IsOnline)
	c.mu.Unlock()
	c.changed()
}

// Snapshot is an immutable view of the controller state for rendering.
type Snapshot struct {
	SessionID    string
	Messages     []Message
	Mode         Mode
	Connected    bool
	Typing       bool
	TypingSender Sender
	HasUnread    bool
	AdminOnline  bool
	PanelOpen    bool
	LeadForm     LeadFormMode
	VisitorKnown bool
	Visitor      VisitorInfo
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	typing, typingSender := c.conv.Typing()
	return Snapshot{
		SessionID:    c.sessionID,
		Messages:     c.conv.Messages(),
		Mode:         c.conv.Mode(),
		Connected:    c.conv.Connected(),
		Typing:       typing,
		TypingSender: typingSender,
		HasUnread:    c.conv.HasUnread(),
		AdminOnline:  c.conv.AdminOnline(),
		PanelOpen:    c.conv.PanelOpen(),
		LeadForm:     c.lead.mode,
		VisitorKnown: c.hasVisitor,
		Visitor:      c.visitor,
	}
}
