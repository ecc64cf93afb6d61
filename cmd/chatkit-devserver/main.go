// chatkit-devserver is a stub chat backend for local development: it speaks
// the widget event contract, echoes visitor messages, and answers with canned
// AI replies. It is not the production service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mursalin-dev/chatkit/internal/chat"
	"github.com/mursalin-dev/chatkit/internal/transport"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// sessionState is the server-side record of one conversation.
type sessionState struct {
	mode     chat.Mode
	messages []chat.Message
}

type server struct {
	logger      *log.Logger
	adminOnline bool

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func main() {
	var (
		port        = flag.Int("port", 4040, "port to listen on")
		adminOnline = flag.Bool("admin-online", false, "report the admin as reachable")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "devserver",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	s := &server{
		logger:      logger,
		adminOnline: *adminOnline,
		sessions:    make(map[string]*sessionState),
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}

// conn wraps one websocket client with a write lock; the reply goroutines
// share the connection with the main handler.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(transport.Envelope{Event: event, Payload: data})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}
	c := &conn{ws: wsConn}
	defer wsConn.Close()
	s.logger.Info("client connected", "remote", wsConn.RemoteAddr())

	for {
		var env transport.Envelope
		if err := wsConn.ReadJSON(&env); err != nil {
			s.logger.Info("client disconnected", "remote", wsConn.RemoteAddr())
			return
		}
		s.handleEvent(c, env)
	}
}

func (s *server) handleEvent(c *conn, env transport.Envelope) {
	switch env.Event {
	case chat.EventStart:
		var p chat.StartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(c, "malformed chat:start payload")
			return
		}
		s.handleStart(c, p.SessionID)

	case chat.EventMessage:
		var p chat.MessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(c, "malformed chat:message payload")
			return
		}
		s.handleMessage(c, p)

	case chat.EventVisitorInfo:
		var p chat.VisitorInfoPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(c, "malformed chat:visitor_info payload")
			return
		}
		s.logger.Info("visitor identified", "session_id", p.SessionID, "name", p.Name, "email", p.Email)

	default:
		s.logger.Debug("ignoring event", "event", env.Event)
	}
}

func (s *server) handleStart(c *conn, sessionID string) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{mode: chat.ModeAI}
		s.sessions[sessionID] = st
	}
	started := chat.StartedPayload{
		ConversationID: sessionID,
		Mode:           st.mode,
		Messages:       append([]chat.Message(nil), st.messages...),
	}
	s.mu.Unlock()

	s.logger.Info("session started", "session_id", sessionID, "history", len(started.Messages))
	c.send(chat.EventAdminStatus, chat.AdminStatusPayload{IsOnline: s.adminOnline})
	c.send(chat.EventStarted, started)
}

func (s *server) handleMessage(c *conn, p chat.MessagePayload) {
	echo := chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderVisitor,
		Content:   p.Content,
		CreatedAt: time.Now(),
	}
	s.record(p.SessionID, echo)
	c.send(chat.EventMessage, echo)

	// "/live" simulates a human taking over
	if p.Content == "/live" {
		s.setMode(p.SessionID, chat.ModeLive)
		c.send(chat.EventModeChanged, chat.ModeChangedPayload{
			Mode:    chat.ModeLive,
			Message: "Mursalin joined the conversation",
		})
		return
	}

	go s.reply(c, p)
}

// reply sends a canned AI response after a short typing delay.
func (s *server) reply(c *conn, p chat.MessagePayload) {
	c.send(chat.EventTyping, chat.TypingPayload{IsTyping: true, Sender: chat.SenderAI})
	time.Sleep(700 * time.Millisecond)

	msg := chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderAI,
		Content:   cannedReply(p.Content),
		CreatedAt: time.Now(),
	}
	s.record(p.SessionID, msg)
	c.send(chat.EventTyping, chat.TypingPayload{IsTyping: false, Sender: chat.SenderAI})
	c.send(chat.EventMessage, msg)
}

func (s *server) record(sessionID string, msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{mode: chat.ModeAI}
		s.sessions[sessionID] = st
	}
	st.messages = append(st.messages, msg)
}

func (s *server) setMode(sessionID string, mode chat.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionID]; ok {
		st.mode = mode
	}
}

func (s *server) sendError(c *conn, message string) {
	c.send(chat.EventError, chat.ErrorPayload{Message: message})
}

func cannedReply(content string) string {
	replies := []string{
		"Thanks for reaching out! Ask me anything about Mursalin's work.",
		"Good question. Mursalin builds web apps, stores, and brand sites.",
		"I can help with that. Want me to loop in a human? Just ask.",
		"Noted! Anything else you'd like to know?",
	}
	return replies[len(content)%len(replies)]
}
