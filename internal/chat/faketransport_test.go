package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mursalin-dev/chatkit/internal/transport"
)

// fakeTransport is an in-process Transport for tests: it records emissions
// and lets a test play the server by delivering inbound events and flipping
// the connection.
type fakeTransport struct {
	mu           sync.Mutex
	handlers     map[string]transport.Handler
	onConnect    func()
	onDisconnect func()
	connected    bool
	emitted      []emittedEvent
}

type emittedEvent struct {
	event   string
	payload json.RawMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]transport.Handler)}
}

func (f *fakeTransport) Connect(ctx context.Context) error { return nil }

func (f *fakeTransport) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return
	}
	f.emitted = append(f.emitted, emittedEvent{event: event, payload: data})
}

func (f *fakeTransport) On(event string, h transport.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = h
}

func (f *fakeTransport) OnConnect(fn func())    { f.onConnect = fn }
func (f *fakeTransport) OnDisconnect(fn func()) { f.onDisconnect = fn }

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Disconnect() { f.goOffline() }

// goOnline simulates a (re)connection epoch.
func (f *fakeTransport) goOnline() {
	f.mu.Lock()
	f.connected = true
	fn := f.onConnect
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakeTransport) goOffline() {
	f.mu.Lock()
	if !f.connected {
		f.mu.Unlock()
		return
	}
	f.connected = false
	fn := f.onDisconnect
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// deliver plays an inbound server event.
func (f *fakeTransport) deliver(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal %s payload: %v", event, err)
	}
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no handler registered for %s", event)
	}
	h(data)
}

// emittedOf returns all recorded emissions of a given event.
func (f *fakeTransport) emittedOf(event string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.emitted {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// events returns the ordered event names of everything emitted.
func (f *fakeTransport) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.emitted))
	for i, e := range f.emitted {
		out[i] = e.event
	}
	return out
}

func (f *fakeTransport) clearEmitted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = nil
}

// recordingNotifier captures notification side effects.
type recordingNotifier struct {
	mu       sync.Mutex
	previews []string
}

func (r *recordingNotifier) Notify(preview string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previews = append(r.previews, preview)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.previews)
}

func decodePayload[T any](t *testing.T, e emittedEvent) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(e.payload, &v); err != nil {
		t.Fatalf("failed to decode %s payload: %v", e.event, err)
	}
	return v
}
