package sshc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgboxio/sshc/protocol"
	"github.com/msgboxio/sshc/transport"
)

func TestBuildParseChannelOpenConfirmation(t *testing.T) {
	b := []byte{protocol.MsgChannelOpenConf}
	b = protocol.AppendUint32(b, 0)
	b = protocol.AppendUint32(b, 77)
	b = protocol.AppendUint32(b, protocol.DefaultWindow)
	b = protocol.AppendUint32(b, protocol.ChannelMaxPacket)

	conf, err := parseChannelOpenConfirmation(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), conf.recipientChannel)
	assert.Equal(t, uint32(77), conf.senderChannel)
	assert.Equal(t, uint32(protocol.DefaultWindow), conf.initialWindow)
	assert.Equal(t, uint32(protocol.ChannelMaxPacket), conf.maxPacketSize)
}

func TestBuildParseChannelData(t *testing.T) {
	b := buildChannelData(77, []byte("hello shell"))
	data, err := parseChannelData(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello shell"), data)
}

func TestBuildParseChannelExtendedData(t *testing.T) {
	b := []byte{protocol.MsgChannelExtendedData}
	b = protocol.AppendUint32(b, 77)
	b = protocol.AppendUint32(b, protocol.ChannelExtendedDataTypeStderr)
	b = protocol.AppendString(b, []byte("stderr text"))

	typ, data, err := parseChannelExtendedData(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(protocol.ChannelExtendedDataTypeStderr), typ)
	assert.Equal(t, []byte("stderr text"), data)
}

// recordingTransport is a minimal transport.Transport that only records
// what's sent, for asserting on the raw wire traffic deliverChannelData
// produces.
type recordingTransport struct {
	sent [][]byte
}

func (r *recordingTransport) ReadyState() transport.ReadyState { return transport.Open }
func (r *recordingTransport) Send(b []byte) error {
	r.sent = append(r.sent, append([]byte{}, b...))
	return nil
}
func (r *recordingTransport) OnMessage(func([]byte)) {}
func (r *recordingTransport) OnError(func(error))    {}
func (r *recordingTransport) OnClose(func())         {}
func (r *recordingTransport) Close() error           { return nil }

func TestDeliverChannelDataSendsEqualLengthWindowAdjustImmediately(t *testing.T) {
	algs := negotiatedAlgorithms{mac: "hmac-sha2-256-etm@openssh.com"}
	client, server := pairedCiphers(t, algs)

	rt := &recordingTransport{}
	c := &Connection{transport: rt, cipherState: client}
	c.ch.remoteID = 1

	require.NoError(t, c.deliverChannelData([]byte("hello")))
	require.Len(t, rt.sent, 1, "one WINDOW_ADJUST must go out per CHANNEL_DATA delivery")

	server.Feed(rt.sent[0])
	payload, ok, err := server.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, byte(protocol.MsgChannelWindowAdjust), payload[0])
	bytesToAdd, err := parseWindowAdjust(payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(len("hello")), bytesToAdd)
}

func TestDeliverChannelDataEmptyPayloadSendsNothing(t *testing.T) {
	algs := negotiatedAlgorithms{mac: "hmac-sha2-256-etm@openssh.com"}
	client, _ := pairedCiphers(t, algs)

	rt := &recordingTransport{}
	c := &Connection{transport: rt, cipherState: client}
	c.ch.remoteID = 1

	require.NoError(t, c.deliverChannelData(nil))
	assert.Empty(t, rt.sent)
}

func TestParseChannelOpenFailure(t *testing.T) {
	b := []byte{protocol.MsgChannelOpenFailure}
	b = protocol.AppendUint32(b, 0)
	b = protocol.AppendUint32(b, 2)
	b = protocol.AppendString(b, []byte("administratively prohibited"))
	b = protocol.AppendString(b, nil)

	code, desc, err := parseChannelOpenFailure(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), code)
	assert.Equal(t, "administratively prohibited", desc)
}

func TestParseChannelRequestReply(t *testing.T) {
	success, ok := parseChannelRequestReply([]byte{protocol.MsgChannelSuccess})
	assert.True(t, ok)
	assert.True(t, success)

	success, ok = parseChannelRequestReply([]byte{protocol.MsgChannelFailure})
	assert.True(t, ok)
	assert.False(t, success)
}
