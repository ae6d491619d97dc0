// Package transport defines the byte-transport contract sshc's connection
// orchestrator is driven over and two concrete adapters: a WebSocket
// carrying binary frames and a plain net.Conn/TCP adapter. The
// orchestrator never imports a specific adapter; it only depends on the
// Transport interface.
package transport

import "sync"

// ReadyState mirrors the states a message-oriented transport (e.g. a
// WebSocket) exposes to its caller.
type ReadyState int

const (
	Connecting ReadyState = iota
	Open
	Closing
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the message-oriented byte transport contract:
// binary message-oriented, delivers byte chunks with no framing alignment
// guarantee, and exposes open/close/error events plus a Send method gated
// by ReadyState.
type Transport interface {
	// ReadyState reports whether Send may currently be called.
	ReadyState() ReadyState

	// Send writes one message frame. Implementations return an error
	// immediately if ReadyState() != Open.
	Send(b []byte) error

	// OnMessage registers the single subscriber for inbound byte chunks.
	// The adapters in this package start reading only once the first
	// handler is registered, so no chunk arrives before a subscriber.
	OnMessage(func([]byte))

	// OnError registers the single subscriber for transport-level errors.
	OnError(func(error))

	// OnClose registers the single subscriber notified when the
	// transport closes, whether locally or remotely initiated.
	OnClose(func())

	// Close closes the transport. Idempotent.
	Close() error
}

// handlers is embedded by each adapter to give it the same
// register-before-open callback bookkeeping without repeating it. onArm,
// when set, fires once on the first call to any of OnMessage/OnError/
// OnClose. Adapters use it to defer starting their read pump until the
// caller has had a chance to subscribe, so no inbound byte or close
// notification can be lost to an unset callback.
type handlers struct {
	mu        sync.Mutex
	onMessage func([]byte)
	onError   func(error)
	onClose   func()

	armOnce sync.Once
	onArm   func()
}

func (h *handlers) OnMessage(f func([]byte)) {
	h.mu.Lock()
	h.onMessage = f
	h.mu.Unlock()
	h.arm()
}

func (h *handlers) OnError(f func(error)) {
	h.mu.Lock()
	h.onError = f
	h.mu.Unlock()
	h.arm()
}

func (h *handlers) OnClose(f func()) {
	h.mu.Lock()
	h.onClose = f
	h.mu.Unlock()
	h.arm()
}

func (h *handlers) arm() {
	h.mu.Lock()
	f := h.onArm
	h.mu.Unlock()
	if f != nil {
		h.armOnce.Do(f)
	}
}

func (h *handlers) fireMessage(b []byte) {
	h.mu.Lock()
	f := h.onMessage
	h.mu.Unlock()
	if f != nil {
		f(b)
	}
}

func (h *handlers) fireError(err error) {
	h.mu.Lock()
	f := h.onError
	h.mu.Unlock()
	if f != nil {
		f(err)
	}
}

func (h *handlers) fireClose() {
	h.mu.Lock()
	f := h.onClose
	h.mu.Unlock()
	if f != nil {
		f()
	}
}
