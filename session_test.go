package sshc

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/msgboxio/sshc/cryptoprim"
	"github.com/msgboxio/sshc/protocol"
	"github.com/msgboxio/sshc/transport"
)

// stubConn drives the server side of a full handshake over a raw net.Conn, reusing sshc's own unexported wire helpers
// (same package) the way a second, independent implementation of the
// protocol would, to validate the client end-to-end against something
// other than itself.
type stubConn struct {
	conn net.Conn
	buf  []byte
}

func (s *stubConn) readRaw() error {
	tmp := make([]byte, 8192)
	n, err := s.conn.Read(tmp)
	if n > 0 {
		s.buf = append(s.buf, tmp[:n]...)
	}
	return err
}

func (s *stubConn) readIdentLine() ([]byte, error) {
	for {
		if idx := bytes.Index(s.buf, []byte("\r\n")); idx >= 0 {
			line := s.buf[:idx]
			s.buf = s.buf[idx+2:]
			return line, nil
		}
		if err := s.readRaw(); err != nil {
			return nil, err
		}
	}
}

func (s *stubConn) readPlainPacket() ([]byte, error) {
	for {
		payload, consumed, ok := protocol.ParsePacket(s.buf)
		if ok {
			s.buf = s.buf[consumed:]
			return payload, nil
		}
		if err := s.readRaw(); err != nil {
			return nil, err
		}
	}
}

func (s *stubConn) writePlainPacket(payload []byte) error {
	packet, err := protocol.BuildPacket(payload, false)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(packet)
	return err
}

func (s *stubConn) readEncryptedPacket(sc *TransportCipher) ([]byte, error) {
	if len(s.buf) > 0 {
		sc.Feed(s.buf)
		s.buf = nil
	}
	for {
		payload, ok, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}
		tmp := make([]byte, 8192)
		n, err := s.conn.Read(tmp)
		if n > 0 {
			sc.Feed(tmp[:n])
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *stubConn) writeEncryptedPacket(sc *TransportCipher, payload []byte) error {
	wire, err := sc.Encrypt(payload)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(wire)
	return err
}

// runStubServer drives one full handshake and then echoes every
// CHANNEL_DATA byte string back prefixed with "echo:", until the client
// closes the channel.
func runStubServer(t *testing.T, conn net.Conn) {
	s := &stubConn{conn: conn}

	clientIdent, err := s.readIdentLine()
	require.NoError(t, err)
	serverIdent := []byte("SSH-2.0-stubserver_1.0")
	_, err = s.conn.Write(append(append([]byte{}, serverIdent...), "\r\n"...))
	require.NoError(t, err)

	clientKexInit, err := s.readPlainPacket()
	require.NoError(t, err)
	serverKexInit, err := buildKexInit()
	require.NoError(t, err)
	require.NoError(t, s.writePlainPacket(serverKexInit))

	parsedClientKexInit, err := parseKexInit(clientKexInit)
	require.NoError(t, err)
	algs, err := negotiate(parsedClientKexInit)
	require.NoError(t, err)

	clientKexDHInit, err := s.readPlainPacket()
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgKexDHInit), clientKexDHInit[0])
	clientPubRaw, _, ok := protocol.ReadString(clientKexDHInit, 1)
	require.True(t, ok)
	var clientPub [32]byte
	copy(clientPub[:], clientPubRaw)

	serverPriv, serverPub, err := cryptoprim.GenerateX25519Keypair(rand.Reader)
	require.NoError(t, err)
	sharedRaw, err := cryptoprim.X25519SharedSecret(serverPriv, clientPub)
	require.NoError(t, err)
	shared := new(big.Int).SetBytes(sharedRaw)

	hostPub, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSSHPub, err := ssh.NewPublicKey(hostPub)
	require.NoError(t, err)
	hostKeyBlob := hostSSHPub.Marshal()

	h := computeExchangeHash(exchangeHashInput{
		clientIdent:    clientIdent,
		serverIdent:    serverIdent,
		clientKexInit:  clientKexInit,
		serverKexInit:  serverKexInit,
		hostKeyBlob:    hostKeyBlob,
		clientKexValue: clientPub[:],
		serverKexValue: serverPub[:],
		isX25519:       true,
		sharedSecret:   shared,
	})

	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)
	sig, err := hostSigner.Sign(rand.Reader, h[:])
	require.NoError(t, err)
	sigWire := marshalSignature(sig)

	reply := []byte{protocol.MsgKexDHReply}
	reply = protocol.AppendString(reply, hostKeyBlob)
	reply = protocol.AppendString(reply, serverPub[:])
	reply = protocol.AppendString(reply, sigWire)
	require.NoError(t, s.writePlainPacket(reply))
	require.NoError(t, s.writePlainPacket([]byte{protocol.MsgNewKeys}))

	clientNewKeys, err := s.readPlainPacket()
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgNewKeys), clientNewKeys[0])

	sessionID := append([]byte{}, h[:]...)
	keys := deriveKeys(shared, h, sessionID)
	serverKeys := derivedKeys{
		ivC2S: keys.ivS2C, ivS2C: keys.ivC2S,
		encC2S: keys.encS2C, encS2C: keys.encC2S,
		macC2S: keys.macS2C, macS2C: keys.macC2S,
	}
	sc, err := newTransportCipher(serverKeys, algs, initialEncryptedSeq, initialEncryptedSeq)
	require.NoError(t, err)

	serviceReq, err := s.readEncryptedPacket(sc)
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgServiceRequest), serviceReq[0])
	accept := []byte{protocol.MsgServiceAccept}
	accept = protocol.AppendString(accept, []byte(serviceUserauth))
	require.NoError(t, s.writeEncryptedPacket(sc, accept))

	authReq, err := s.readEncryptedPacket(sc)
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgUserauthRequest), authReq[0])
	require.NoError(t, s.writeEncryptedPacket(sc, []byte{protocol.MsgUserauthSuccess}))

	chanOpen, err := s.readEncryptedPacket(sc)
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgChannelOpen), chanOpen[0])
	conf := []byte{protocol.MsgChannelOpenConf}
	conf = protocol.AppendUint32(conf, 0) // recipient: client's local id
	conf = protocol.AppendUint32(conf, 1) // sender: server's channel id
	conf = protocol.AppendUint32(conf, protocol.DefaultWindow)
	conf = protocol.AppendUint32(conf, protocol.ChannelMaxPacket)
	require.NoError(t, s.writeEncryptedPacket(sc, conf))

	ptyReq, err := s.readEncryptedPacket(sc)
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgChannelRequest), ptyReq[0])
	success := []byte{protocol.MsgChannelSuccess}
	success = protocol.AppendUint32(success, 0)
	require.NoError(t, s.writeEncryptedPacket(sc, success))

	shellReq, err := s.readEncryptedPacket(sc)
	require.NoError(t, err)
	require.Equal(t, byte(protocol.MsgChannelRequest), shellReq[0])
	require.NoError(t, s.writeEncryptedPacket(sc, success))

	for {
		payload, err := s.readEncryptedPacket(sc)
		if err != nil {
			return
		}
		switch protocol.MessageType(payload[0]) {
		case protocol.SSHMsgChannelData:
			data, err := parseChannelData(payload)
			if err != nil {
				return
			}
			echoed := append([]byte("echo:"), data...)
			if err := s.writeEncryptedPacket(sc, buildChannelData(0, echoed)); err != nil {
				return
			}
		case protocol.SSHMsgChannelEOF, protocol.SSHMsgChannelClose:
			return
		}
	}
}

func TestConsumeIdentBytesSkipsLeadingGarbageBeforeSSHBanner(t *testing.T) {
	rt := &recordingTransport{}
	c := &Connection{transport: rt}

	err := c.consumeIdentBytes([]byte("garbage-before-SSH-2.0-server\r\nMORE"))
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-server", string(c.serverIdent))
	assert.Equal(t, PhaseKex, c.phase)
}

func TestConsumeIdentBytesAcceptsLFOnlyTerminator(t *testing.T) {
	rt := &recordingTransport{}
	c := &Connection{transport: rt}

	err := c.consumeIdentBytes([]byte("SSH-2.0-server\nMORE"))
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-server", string(c.serverIdent))
	assert.Equal(t, PhaseKex, c.phase)
}

func TestConnectFullHandshakeAndEcho(t *testing.T) {
	c1, c2 := net.Pipe()
	clientTransport := transport.NewTCP(c1)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		runStubServer(t, c2)
	}()

	creds := testCredentials(t)
	onError := make(chan error, 1)

	conn, err := Connect(clientTransport, creds, func(err error) { onError <- err }, Options{
		HostKeyCallback: AcceptAnyHostKey,
	})
	require.NoError(t, err)

	received := make(chan []byte, 1)
	conn.OnData(func(b []byte) { received <- b })

	conn.Write([]byte("ping"))

	select {
	case b := <-received:
		assert.Equal(t, "echo:ping", string(b))
	case err := <-onError:
		t.Fatalf("connection failed: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echoed data")
	}

	conn.Close()
	select {
	case <-serverDone:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stub server to exit")
	}
}
