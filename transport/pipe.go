package transport

import "net"

// NewPipePair returns two Transports wired together in-memory via
// net.Pipe, for driving the end-to-end handshake scenario against a stub server without a real socket or WebSocket
// endpoint.
func NewPipePair() (client, server *TCPTransport) {
	c, s := net.Pipe()
	return NewTCP(c), NewTCP(s)
}
