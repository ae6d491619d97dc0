package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipePairDeliversMessages(t *testing.T) {
	client, server := NewPipePair()
	defer client.Close()
	defer server.Close()

	received := make(chan []byte, 1)
	server.OnMessage(func(b []byte) { received <- b })

	require.NoError(t, client.Send([]byte("hello")))

	select {
	case b := <-received:
		assert.Equal(t, "hello", string(b))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPipePairCloseFiresOnClose(t *testing.T) {
	client, server := NewPipePair()
	closed := make(chan struct{})
	server.OnClose(func() { close(closed) })

	require.NoError(t, client.Close())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close notification")
	}
	assert.Equal(t, Closed, server.ReadyState())
}
