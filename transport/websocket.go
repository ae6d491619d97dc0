package transport

import (
	"context"
	"sync/atomic"

	"nhooyr.io/websocket"
)

// WebSocketTransport carries SSH protocol bytes over a WebSocket's binary
// frames.
type WebSocketTransport struct {
	handlers

	conn  *websocket.Conn
	state atomic.Int32

	cancel context.CancelFunc
}

// DialWebSocket opens a WebSocket to url and returns a Transport. The read
// pump does not start until the caller registers a handler, so the caller
// never races the first inbound frame against subscribing to it.
func DialWebSocket(ctx context.Context, url string) (*WebSocketTransport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(-1)

	pumpCtx, cancel := context.WithCancel(context.Background())
	t := &WebSocketTransport{conn: conn, cancel: cancel}
	t.state.Store(int32(Open))
	t.onArm = func() { go t.readPump(pumpCtx) }
	return t, nil
}

func (t *WebSocketTransport) readPump(ctx context.Context) {
	for {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			t.transitionClosed()
			// A normal closure handshake (ours via Close, or the peer's) is a
			// clean end, not a transport failure; anything else is an error.
			clean := ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure
			if !clean {
				t.fireError(err)
			}
			t.fireClose()
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		t.fireMessage(data)
	}
}

func (t *WebSocketTransport) transitionClosed() {
	t.state.Store(int32(Closed))
}

func (t *WebSocketTransport) ReadyState() ReadyState {
	return ReadyState(t.state.Load())
}

func (t *WebSocketTransport) Send(b []byte) error {
	if t.ReadyState() != Open {
		return errTransportNotOpen
	}
	return t.conn.Write(context.Background(), websocket.MessageBinary, b)
}

func (t *WebSocketTransport) Close() error {
	if t.ReadyState() == Closed {
		return nil
	}
	t.state.Store(int32(Closing))
	t.cancel()
	err := t.conn.Close(websocket.StatusNormalClosure, "session ended")
	t.transitionClosed()
	return err
}
