package transport

import (
	"errors"
	"io"
	"net"
	"sync/atomic"
)

var errTransportNotOpen = errors.New("transport: not open")

// TCPTransport adapts a plain net.Conn (a raw TCP socket, or any stream)
// to the Transport contract. There is no datagram boundary to preserve
// here: SSH packets are reassembled from an arbitrary chunk stream
// regardless of how the underlying reads happen to be sized.
type TCPTransport struct {
	handlers

	conn  net.Conn
	state atomic.Int32
}

// NewTCP wraps an already-dialed net.Conn. The read pump does not start
// until the caller registers a handler, so a caller that constructs the
// transport then subscribes can never lose bytes delivered in between
//.
func NewTCP(conn net.Conn) *TCPTransport {
	t := &TCPTransport{conn: conn}
	t.state.Store(int32(Open))
	t.onArm = func() { go t.readPump() }
	return t
}

func (t *TCPTransport) readPump() {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.fireMessage(chunk)
		}
		if err != nil {
			t.state.Store(int32(Closed))
			// io.EOF is how a clean close (ours or the peer's) surfaces on a
			// stream read; only other errors are a transport-level failure.
			if err != io.EOF {
				t.fireError(err)
			}
			t.fireClose()
			return
		}
	}
}

func (t *TCPTransport) ReadyState() ReadyState {
	return ReadyState(t.state.Load())
}

func (t *TCPTransport) Send(b []byte) error {
	if t.ReadyState() != Open {
		return errTransportNotOpen
	}
	_, err := t.conn.Write(b)
	return err
}

func (t *TCPTransport) Close() error {
	if t.ReadyState() == Closed {
		return nil
	}
	t.state.Store(int32(Closing))
	err := t.conn.Close()
	t.state.Store(int32(Closed))
	return err
}
