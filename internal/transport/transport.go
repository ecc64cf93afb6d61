package transport

import (
	"context"
	"encoding/json"
)

// Handler receives the raw payload of a named inbound event.
type Handler func(payload json.RawMessage)

// Transport owns a single long-lived bidirectional connection to the chat
// service. Event identity travels in payloads; the transport does not
// multiplex sessions.
//
// Emit is fire-and-forget: while disconnected it drops the event silently,
// and callers must not rely on delivery. Reconnection is the transport's own
// concern; session-level recovery (re-issuing chat:start) belongs to the
// caller, driven by the OnConnect callback.
type Transport interface {
	// Connect starts the connection manager. Idempotent; non-blocking.
	// The connection (and any reconnects) are reported via OnConnect.
	Connect(ctx context.Context) error
	// Emit sends a named event with a JSON payload, dropping it if offline.
	Emit(event string, payload any)
	// On registers the handler for a named inbound event. Registration must
	// happen before Connect.
	On(event string, h Handler)
	// OnConnect registers a callback invoked after every successful
	// connection, including reconnects.
	OnConnect(fn func())
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(fn func())
	// Connected reports whether the connection is currently open.
	Connected() bool
	// Disconnect tears the connection down permanently.
	Disconnect()
}

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
