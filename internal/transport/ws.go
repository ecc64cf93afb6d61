package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 30 * time.Second

	sendBuffer = 256
)

// WS is the websocket Transport implementation. It dials the chat service,
// runs read/write pumps, and redials with capped exponential backoff whenever
// the connection drops, until Disconnect is called.
type WS struct {
	url    string
	logger *log.Logger

	mu           sync.Mutex
	handlers     map[string]Handler
	onConnect    func()
	onDisconnect func()
	conn         *websocket.Conn
	send         chan Envelope
	connected    bool
	closed       bool
	running      bool
	cancel       context.CancelFunc
}

// NewWS creates a websocket transport for the given ws:// or wss:// URL.
func NewWS(url string, logger *log.Logger) *WS {
	if logger == nil {
		logger = log.Default()
	}
	return &WS{
		url:      url,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// On registers a handler for a named inbound event. Must be called before
// Connect.
func (w *WS) On(event string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = h
}

// OnConnect registers the connected callback.
func (w *WS) OnConnect(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onConnect = fn
}

// OnDisconnect registers the disconnected callback.
func (w *WS) OnDisconnect(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDisconnect = fn
}

// Connected reports whether the connection is currently open.
func (w *WS) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Connect starts the connection manager goroutine. Calling it again while
// running is a no-op; calling it after Disconnect is an error.
func (w *WS) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("transport is closed")
	}
	if w.running {
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true
	go w.run(ctx)
	return nil
}

// Emit sends a named event. While disconnected the event is dropped; the
// server replays conversation state on the next chat:start.
func (w *WS) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("failed to encode event payload", "event", event, "error", err)
		return
	}
	env := Envelope{Event: event, Payload: data}

	w.mu.Lock()
	connected, send := w.connected, w.send
	w.mu.Unlock()
	if !connected {
		w.logger.Debug("dropping event while disconnected", "event", event)
		return
	}
	select {
	case send <- env:
	default:
		w.logger.Warn("send buffer full, dropping event", "event", event)
	}
}

// Disconnect tears down the connection permanently.
func (w *WS) Disconnect() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	cancel := w.cancel
	conn := w.conn
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// run dials the server and keeps the connection alive until the transport is
// closed, backing off between failed attempts.
func (w *WS) run(ctx context.Context) {
	backoff := reconnectBase
	for {
		if ctx.Err() != nil || w.isClosed() {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
		if err != nil {
			w.logger.Debug("dial failed", "url", w.url, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}
		backoff = reconnectBase

		send := make(chan Envelope, sendBuffer)
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			conn.Close()
			return
		}
		w.conn = conn
		w.send = send
		w.connected = true
		onConnect := w.onConnect
		w.mu.Unlock()

		w.logger.Debug("connected", "url", w.url)
		if onConnect != nil {
			onConnect()
		}

		done := make(chan struct{})
		go w.writePump(conn, send, done)
		w.readPump(conn) // blocks until the connection fails
		close(done)
		conn.Close()

		w.mu.Lock()
		w.connected = false
		w.conn = nil
		onDisconnect := w.onDisconnect
		closed := w.closed
		w.mu.Unlock()

		w.logger.Debug("disconnected", "url", w.url)
		if onDisconnect != nil {
			onDisconnect()
		}
		if closed {
			return
		}
	}
}

// readPump reads envelopes and dispatches them to registered handlers.
func (w *WS) readPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				w.logger.Debug("read error", "error", err)
			}
			return
		}

		w.mu.Lock()
		h := w.handlers[env.Event]
		w.mu.Unlock()
		if h == nil {
			w.logger.Debug("no handler for event", "event", env.Event)
			continue
		}
		h(env.Payload)
	}
}

// writePump drains the send channel and keeps the connection alive with pings.
func (w *WS) writePump(conn *websocket.Conn, send chan Envelope, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				w.logger.Debug("write error", "event", env.Event, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (w *WS) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
