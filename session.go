package sshc

import (
	"bytes"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	sshcrypto "golang.org/x/crypto/ssh"

	"github.com/msgboxio/sshc/internal/fsm"
	"github.com/msgboxio/sshc/protocol"
	"github.com/msgboxio/sshc/transport"
)

// connEventKind tags the single event type Connection.run receives from
// a single incoming-events channel feeding the run loop.
type connEventKind int

const (
	evTransportMessage connEventKind = iota
	evTransportError
	evTransportClose
	evWrite
	evResize
	evUserClose
	evKexTimeout
)

type connEvent struct {
	kind connEventKind
	data []byte
	err  error
	cols int
	rows int
}

// Connection is sshc's boundary object: one connection, one
// channel, driven entirely by the single goroutine running run. Write,
// Resize, and Close only post events into the loop; OnData is the one
// method that sets a field (the data callback) directly.
type Connection struct {
	transport transport.Transport
	creds     Credentials
	opts      Options
	logger    log.Logger

	events *fsm.EventLoop[connEvent]

	phase ConnPhase
	kex   kexState
	auth  authState
	ch    channelState

	clientIdent []byte
	serverIdent []byte
	identBuf    []byte

	plainBuf    []byte
	cipherState *TransportCipher

	// kexTimer bounds KexExchanging; started when the server's KEXINIT
	// arrives and this side's KEX_*_INIT is sent, stopped as soon as the
	// KEX reply is parsed. Nil outside that window.
	kexTimer *time.Timer

	// newKeysReceived stays false until the peer's own NEWKEYS has been
	// parsed. cipherState is assigned as soon as this side computes the
	// session keys (while still processing KEXDH_REPLY), which can race
	// ahead of the peer's NEWKEYS arriving in a later, separate read,
	// inbound bytes stay in plaintext parsing until both are true.
	newKeysReceived bool

	sessionID []byte

	pendingWrites [][]byte

	unimplementedCount int

	onData  func([]byte)
	onError func(error)

	closeOnce sync.Once
	done      chan struct{}
}

// Connect starts a connection over t and returns once the shell is active
// and ready for Write/OnData traffic, or returns an error if the handshake
// fails at any phase. onError is called at most once, on the
// goroutine running run, for any fatal condition arising after Connect
// returns.
func Connect(t transport.Transport, creds Credentials, onError func(error), opts Options) (*Connection, error) {
	opts = opts.withDefaults()
	c := &Connection{
		transport: t,
		creds:     creds,
		opts:      opts,
		logger:    opts.Logger,
		events:    fsm.NewEventLoop[connEvent](16),
		phase:     PhaseIdentExchange,
		done:      make(chan struct{}),
		onError:   onError,
	}

	t.OnMessage(func(b []byte) { c.events.Post(connEvent{kind: evTransportMessage, data: b}) })
	t.OnError(func(err error) { c.events.Post(connEvent{kind: evTransportError, err: err}) })
	t.OnClose(func() { c.events.Post(connEvent{kind: evTransportClose}) })

	ready := make(chan error, 1)
	go c.run(ready)

	if err := <-ready; err != nil {
		return nil, err
	}
	return c, nil
}

// OnData registers the callback invoked with bytes arriving from the
// remote shell's stdout/stderr. Must be set before traffic is
// expected; sshc has exactly one subscriber, like transport.Transport.
func (c *Connection) OnData(f func([]byte)) { c.onData = f }

// Write sends data to the remote shell's stdin.
func (c *Connection) Write(data []byte) {
	c.events.Post(connEvent{kind: evWrite, data: data})
}

// Resize issues a "window-change" channel request for new terminal
// dimensions.
func (c *Connection) Resize(cols, rows int) {
	c.events.Post(connEvent{kind: evResize, cols: cols, rows: rows})
}

// Close tears the connection down: CHANNEL_EOF, CHANNEL_CLOSE, then the
// underlying transport, draining any already-queued outbound writes first
//.
func (c *Connection) Close() {
	c.events.Post(connEvent{kind: evUserClose})
}

// Done returns a channel closed once, whether the connection ended
// normally (caller-initiated Close, remote CHANNEL_CLOSE) or fatally (see
// onError). Callers that need to block until the session is fully torn
// down, without caring which, select on this rather than only onError.
func (c *Connection) Done() <-chan struct{} { return c.done }

// run is the single-goroutine orchestrator. ready receives the outcome of
// the initial handshake (ident exchange through shell-active) exactly
// once; after that it drives dispatchActive indefinitely until finish.
func (c *Connection) run(ready chan<- error) {
	if err := c.sendIdent(); err != nil {
		ready <- err
		return
	}

	for c.phase != PhaseActive {
		ev := <-c.events.Events()
		if err := c.handleHandshakeEvent(ev); err != nil {
			c.phase = PhaseError
			ready <- err
			return
		}
	}
	ready <- nil

	for {
		ev, ok := <-c.events.Events()
		if !ok {
			return
		}
		if err := c.handleActiveEvent(ev); err != nil {
			c.fail(err)
			return
		}
		if c.phase == PhaseClosed {
			return
		}
	}
}

// advancePhase moves the connection phase forward through connPhaseOrder,
// refusing any backward move.
func (c *Connection) advancePhase(next ConnPhase) error {
	p, err := connPhaseOrder.Advance(c.phase, next)
	if err != nil {
		return err
	}
	c.phase = p
	return nil
}

// advanceKexPhase, advanceAuthPhase, and advanceChanPhase are
// advancePhase's counterparts for the three sub-machines, refusing the
// same kind of backward move within their own phase order.
func (c *Connection) advanceKexPhase(next KexPhase) error {
	p, err := kexPhaseOrder.Advance(c.kex.phase, next)
	if err != nil {
		return err
	}
	c.kex.phase = p
	return nil
}

// advanceAuthPhase is not used for AuthFailed: that phase is a side-exit
// reachable from any non-terminal phase, not a further step along
// authPhaseOrder's happy path, so handleAuthPayload sets it directly.
func (c *Connection) advanceAuthPhase(next AuthPhase) error {
	p, err := authPhaseOrder.Advance(c.auth.phase, next)
	if err != nil {
		return err
	}
	c.auth.phase = p
	return nil
}

func (c *Connection) advanceChanPhase(next ChanPhase) error {
	p, err := chanPhaseOrder.Advance(c.ch.phase, next)
	if err != nil {
		return err
	}
	c.ch.phase = p
	return nil
}

func (c *Connection) fail(err error) {
	level.Error(c.logger).Log("msg", "connection failed", "err", err)
	c.phase = PhaseError
	if c.onError != nil {
		c.onError(err)
	}
	c.finish(err)
}

// handleHandshakeEvent processes one event while phase is still before
// PhaseActive: ident exchange, kex, auth, channel-open, in that order.
func (c *Connection) handleHandshakeEvent(ev connEvent) error {
	switch ev.kind {
	case evTransportError:
		return errors.Wrap(ev.err, "transport error during handshake")
	case evTransportClose:
		return &protocol.TransportClosed{Reason: "closed during handshake"}
	case evTransportMessage:
		return c.handleInboundBytes(ev.data)
	case evUserClose:
		return &protocol.TransportClosed{Reason: "closed by caller before handshake completed"}
	case evKexTimeout:
		if c.kex.phase != KexExchanging {
			return nil // reply already arrived and the timer lost the race; ignore
		}
		return protocol.KexErrf("kex timed out waiting for KEXDH_REPLY after %s", kexTimeout)
	default:
		return nil
	}
}

// handleInboundBytes routes newly arrived transport bytes: before the
// ident line has been read it scans for the "SSH-" banner line (see
// consumeIdentBytes); afterward, in plaintext
// phases (pre-NEWKEYS) it slices complete packets off plainBuf, and in
// encrypted phases it feeds TransportCipher.
func (c *Connection) handleInboundBytes(b []byte) error {
	if c.serverIdent == nil {
		return c.consumeIdentBytes(b)
	}
	if c.cipherState == nil || !c.newKeysReceived {
		c.plainBuf = append(c.plainBuf, b...)
		for !c.newKeysReceived {
			payload, consumed, ok := protocol.ParsePacket(c.plainBuf)
			if !ok {
				return nil
			}
			c.plainBuf = c.plainBuf[consumed:]
			if err := c.handlePayload(payload); err != nil {
				return err
			}
		}
		// newKeysReceived just flipped true inside handlePayload (NEWKEYS
		// was the packet just consumed): anything left in plainBuf is
		// already ciphertext belonging to the next packet.
		leftover := c.plainBuf
		c.plainBuf = nil
		if len(leftover) == 0 {
			return nil
		}
		b = leftover
	}
	c.cipherState.Feed(b)
	for {
		payload, ok, err := c.cipherState.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := c.handlePayload(payload); err != nil {
			return err
		}
	}
}

// handlePayload runs the universal handlers, then the current phase's
// dispatcher, or dispatchActive once the channel is up.
func (c *Connection) handlePayload(payload []byte) error {
	if ok, err := c.handleUniversal(payload); ok {
		return err
	}
	switch c.phase {
	case PhaseKex:
		return c.handleKexPayload(payload)
	case PhaseAuth:
		return c.handleAuthPayload(payload)
	case PhaseChannelOpen:
		return c.handleChannelOpenPayload(payload)
	case PhaseActive:
		return c.dispatchActive(payload)
	default:
		return protocol.ProtocolErrf("unexpected payload in phase %s", c.phase)
	}
}

// --- ident exchange ---

func (c *Connection) sendIdent() error {
	c.clientIdent = []byte("SSH-2.0-" + clientIdentTag)
	return c.transport.Send(append(append([]byte{}, c.clientIdent...), "\r\n"...))
}

// consumeIdentBytes scans for the server's identification line: a server
// may precede it with other CRLF-terminated lines that don't start with
// "SSH-", so the search is for "SSH-" first, then for the line's
// terminator, tolerating a bare LF where a well-behaved peer sends CRLF.
func (c *Connection) consumeIdentBytes(b []byte) error {
	c.identBuf = append(c.identBuf, b...)

	sshIdx := bytes.Index(c.identBuf, []byte("SSH-"))
	nl := -1
	if sshIdx >= 0 {
		if rel := bytes.IndexByte(c.identBuf[sshIdx:], '\n'); rel >= 0 {
			nl = sshIdx + rel
		}
	}
	if sshIdx < 0 || nl < 0 {
		if len(c.identBuf) > 1024 {
			return protocol.ProtocolErrf("server ident line too long without a terminated SSH- banner")
		}
		return nil
	}

	lineEnd := nl
	if lineEnd > sshIdx && c.identBuf[lineEnd-1] == '\r' {
		lineEnd--
	}
	line := c.identBuf[sshIdx:lineEnd]
	if !bytes.HasPrefix(line, []byte("SSH-2.0-")) && !bytes.HasPrefix(line, []byte("SSH-1.99-")) {
		return protocol.ProtocolErrf("unsupported server identification: %q", line)
	}
	c.serverIdent = append([]byte{}, line...)
	rest := c.identBuf[nl+1:]
	c.identBuf = nil
	if err := c.advancePhase(PhaseKex); err != nil {
		return err
	}
	if err := c.advanceKexPhase(KexInit); err != nil {
		return err
	}

	kexInit, err := buildKexInit()
	if err != nil {
		return err
	}
	c.kex.clientKexInit = kexInit
	if err := c.advanceKexPhase(KexNegotiating); err != nil {
		return err
	}
	if err := c.sendPlain(kexInit); err != nil {
		return err
	}
	if len(rest) > 0 {
		return c.handleInboundBytes(rest)
	}
	return nil
}

// --- kex phase ---

func (c *Connection) handleKexPayload(payload []byte) error {
	switch c.kex.phase {
	case KexNegotiating:
		return c.handleServerKexInit(payload)
	case KexExchanging:
		return c.handleKexDHReply(payload)
	case KexComplete:
		return c.handleNewKeys(payload)
	default:
		return protocol.KexErrf("unexpected KEXINIT-phase payload in phase %s", c.kex.phase)
	}
}

func (c *Connection) handleServerKexInit(payload []byte) error {
	if len(payload) == 0 || payload[0] != protocol.MsgKexInit {
		return protocol.KexErrf("expected KEXINIT, got message type %v", protocol.MessageType(firstByte(payload)))
	}
	parsed, err := parseKexInit(payload)
	if err != nil {
		return err
	}
	algs, err := negotiate(parsed)
	if err != nil {
		return err
	}
	c.kex.serverKexInit = append([]byte{}, payload...)
	c.kex.algorithms = algs
	if err := c.advanceKexPhase(KexExchanging); err != nil {
		return err
	}

	ephemeral, kexMsg, err := beginKex(algs.kex)
	if err != nil {
		return err
	}
	c.kex.ephemeral = ephemeral
	c.kexTimer = time.AfterFunc(kexTimeout, func() { c.events.Post(connEvent{kind: evKexTimeout}) })
	return c.sendPlain(kexMsg)
}

func (c *Connection) handleKexDHReply(payload []byte) error {
	if c.kexTimer != nil {
		c.kexTimer.Stop()
		c.kexTimer = nil
	}
	reply, err := parseKexDHReply(payload)
	if err != nil {
		return err
	}
	if err := c.opts.HostKeyCallback(reply.hostKeyBlob); err != nil {
		return protocol.KexErrf("host key rejected: %v", err)
	}

	shared, err := computeSharedSecret(c.kex.ephemeral, reply.serverPublic)
	if err != nil {
		return protocol.KexErrf("shared secret computation failed: %v", err)
	}

	clientValue := kexPublicValueBytes(c.kex.ephemeral)
	h := computeExchangeHash(exchangeHashInput{
		clientIdent:     c.clientIdent,
		serverIdent:     c.serverIdent,
		clientKexInit:   c.kex.clientKexInit,
		serverKexInit:   c.kex.serverKexInit,
		hostKeyBlob:     reply.hostKeyBlob,
		clientKexValue:  clientValue,
		serverKexValue:  reply.serverPublic,
		isX25519:        c.kex.ephemeral.isX25519,
		sharedSecret:    shared,
	})

	if err := verifyHostKeySignature(reply.hostKeyBlob, h, reply.signature); err != nil {
		return protocol.KexErrf("exchange hash signature verification failed: %v", err)
	}

	c.sessionID = append([]byte{}, h[:]...)
	keys := deriveKeys(shared, h, c.sessionID)

	cipherState, err := newTransportCipher(keys, c.kex.algorithms, initialEncryptedSeq, initialEncryptedSeq)
	if err != nil {
		return err
	}
	c.cipherState = cipherState
	if err := c.advanceKexPhase(KexComplete); err != nil {
		return err
	}

	if err := c.sendPlain([]byte{protocol.MsgNewKeys}); err != nil {
		return err
	}
	level.Info(c.logger).Log("msg", "kex complete", "kex", c.kex.algorithms.kex, "cipher", c.kex.algorithms.cipher, "mac", c.kex.algorithms.mac)
	return nil
}

func (c *Connection) handleNewKeys(payload []byte) error {
	if len(payload) == 0 || payload[0] != protocol.MsgNewKeys {
		return protocol.KexErrf("expected NEWKEYS, got message type %v", protocol.MessageType(firstByte(payload)))
	}
	c.newKeysReceived = true
	if err := c.advancePhase(PhaseAuth); err != nil {
		return err
	}
	if err := c.advanceAuthPhase(AuthInit); err != nil {
		return err
	}
	return c.beginAuth()
}

// kexPublicValueBytes extracts the raw octets of this side's ephemeral
// public value, for the exchange hash (curve25519: raw point; DH: the
// public value's unsigned big-endian bytes, matching how ReadMpint and
// computeExchangeHash reinterpret mpint-reply bytes for the DH branch).
func kexPublicValueBytes(e ephemeralKex) []byte {
	if e.isX25519 {
		return e.x25519Pub[:]
	}
	return e.dhPublic.Bytes()
}

// verifyHostKeySignature parses hostKeyBlob as an ssh.PublicKey and
// verifies sig over h. sshc never validates host-key *trust* itself
//); this only confirms the server that
// answered KEXDH_INIT actually holds the private half of K_S.
func verifyHostKeySignature(hostKeyBlob []byte, h [32]byte, sigBlob []byte) error {
	pub, err := sshcrypto.ParsePublicKey(hostKeyBlob)
	if err != nil {
		return err
	}
	format, off, ok := protocol.ReadString(sigBlob, 0)
	if !ok {
		return protocol.ErrTruncated
	}
	blob, _, ok := protocol.ReadString(sigBlob, off)
	if !ok {
		return protocol.ErrTruncated
	}
	sig := &sshcrypto.Signature{Format: string(format), Blob: blob}
	return pub.Verify(h[:], sig)
}

// --- auth phase ---

func (c *Connection) beginAuth() error {
	if err := c.advanceAuthPhase(AuthServiceRequested); err != nil {
		return err
	}
	return c.sendEncrypted(buildServiceRequest())
}

func (c *Connection) handleAuthPayload(payload []byte) error {
	if len(payload) == 0 {
		return protocol.ProtocolErrf("empty auth payload")
	}
	switch protocol.MessageType(payload[0]) {
	case protocol.SSHMsgServiceAccept:
		if c.auth.phase != AuthServiceRequested {
			return protocol.KexErrf("unexpected SERVICE_ACCEPT in auth phase %s", c.auth.phase)
		}
		signed, err := buildAuthRequestSigned(c.creds, c.sessionID)
		if err != nil {
			return err
		}
		if err := c.advanceAuthPhase(AuthSigned); err != nil {
			return err
		}
		return c.sendEncrypted(signed)

	case protocol.SSHMsgUserauthPKOK:
		c.auth.receivedPKOK = true
		if err := c.advanceAuthPhase(AuthAwaitingPKOK); err != nil {
			return err
		}
		signed, err := buildAuthRequestSigned(c.creds, c.sessionID)
		if err != nil {
			return err
		}
		return c.sendEncrypted(signed)

	case protocol.SSHMsgUserauthSuccess:
		if err := c.advanceAuthPhase(AuthComplete); err != nil {
			return err
		}
		return c.beginChannelOpen()

	case protocol.SSHMsgUserauthFailure:
		methods, _ := parseUserauthFailure(payload)
		c.auth.phase = AuthFailed
		return &protocol.AuthError{ReceivedPKOK: c.auth.receivedPKOK, Message: "server rejected certificate; methods left: " + joinOrNone(methods)}

	default:
		return c.sendUnimplementedPlain(payload)
	}
}

func joinOrNone(methods []string) string {
	if len(methods) == 0 {
		return "none"
	}
	out := methods[0]
	for _, m := range methods[1:] {
		out += "," + m
	}
	return out
}

// --- channel-open phase ---

func (c *Connection) beginChannelOpen() error {
	if err := c.advancePhase(PhaseChannelOpen); err != nil {
		return err
	}
	if err := c.advanceChanPhase(ChanOpening); err != nil {
		return err
	}
	c.ch.localID = 0
	c.ch.localWindow = protocol.DefaultWindow
	return c.sendEncrypted(buildChannelOpen(c.ch.localID))
}

func (c *Connection) handleChannelOpenPayload(payload []byte) error {
	if len(payload) == 0 {
		return protocol.ProtocolErrf("empty channel payload")
	}
	switch c.ch.phase {
	case ChanOpening:
		switch protocol.MessageType(payload[0]) {
		case protocol.SSHMsgChannelOpenConf:
			conf, err := parseChannelOpenConfirmation(payload)
			if err != nil {
				return err
			}
			c.ch.remoteID = conf.senderChannel
			c.ch.remoteWindow = conf.initialWindow
			c.ch.ptySent = true
			if err := c.advanceChanPhase(ChanPtyRequested); err != nil {
				return err
			}
			return c.sendEncrypted(buildPtyRequest(c.ch.remoteID, c.opts.Cols, c.opts.Rows))
		case protocol.SSHMsgChannelOpenFailure:
			code, desc, _ := parseChannelOpenFailure(payload)
			return protocol.ChannelErrf("server refused channel open: code=%d %s", code, desc)
		default:
			return c.sendUnimplementedPlain(payload)
		}

	case ChanPtyRequested:
		success, ok := parseChannelRequestReply(payload)
		if !ok {
			return c.sendUnimplementedPlain(payload)
		}
		if !success && c.opts.OnPtyDenied != nil {
			c.opts.OnPtyDenied()
		}
		c.ch.shellSent = true
		if err := c.advanceChanPhase(ChanShellRequested); err != nil {
			return err
		}
		return c.sendEncrypted(buildShellRequest(c.ch.remoteID))

	case ChanShellRequested:
		success, ok := parseChannelRequestReply(payload)
		if !ok {
			return c.sendUnimplementedPlain(payload)
		}
		if !success {
			return protocol.ChannelErrf("server refused shell request")
		}
		if err := c.advanceChanPhase(ChanActive); err != nil {
			return err
		}
		return c.advancePhase(PhaseActive)

	default:
		return protocol.ChannelErrf("unexpected channel-open payload in channel phase %s", c.ch.phase)
	}
}

// --- active phase ---

func (c *Connection) handleActiveEvent(ev connEvent) error {
	switch ev.kind {
	case evTransportMessage:
		return c.handleInboundBytes(ev.data)
	case evTransportError:
		return errors.Wrap(ev.err, "transport error")
	case evTransportClose:
		return &protocol.TransportClosed{Reason: "transport closed unexpectedly"}
	case evWrite:
		return c.queueChannelWrite(ev.data)
	case evResize:
		return c.sendEncrypted(buildWindowChange(c.ch.remoteID, ev.cols, ev.rows))
	case evUserClose:
		return c.gracefulClose()
	default:
		return nil
	}
}

// deliverChannelData hands inbound channel bytes to the caller and
// immediately replenishes the local receive window by the same number of
// bytes, before any other outbound traffic goes out.
func (c *Connection) deliverChannelData(data []byte) error {
	if c.onData != nil {
		c.onData(data)
	}
	if len(data) == 0 {
		return nil
	}
	return c.sendEncrypted(buildWindowAdjust(c.ch.remoteID, uint32(len(data))))
}

// queueChannelWrite chunks data to ChannelMaxPacket and sends as much as
// the remote window currently allows, queuing the remainder until
// WINDOW_ADJUST arrives.
func (c *Connection) queueChannelWrite(data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > protocol.ChannelMaxPacket {
			n = protocol.ChannelMaxPacket
		}
		chunk := data[:n]
		data = data[n:]
		if uint32(len(chunk)) > c.ch.remoteWindow {
			c.pendingWrites = append(c.pendingWrites, chunk)
			continue
		}
		c.ch.remoteWindow -= uint32(len(chunk))
		if err := c.sendEncrypted(buildChannelData(c.ch.remoteID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// flushPendingWrites retries queued writes after a WINDOW_ADJUST widens
// the remote window.
func (c *Connection) flushPendingWrites() {
	for len(c.pendingWrites) > 0 {
		chunk := c.pendingWrites[0]
		if uint32(len(chunk)) > c.ch.remoteWindow {
			return
		}
		c.pendingWrites = c.pendingWrites[1:]
		c.ch.remoteWindow -= uint32(len(chunk))
		if err := c.sendEncrypted(buildChannelData(c.ch.remoteID, chunk)); err != nil {
			c.fail(err)
			return
		}
	}
}

// gracefulClose sends the already-queued writes that the remote window
// currently allows, then sends EOF and CLOSE before tearing down the
// transport. Queued writes that do not fit the window are dropped.
func (c *Connection) gracefulClose() error {
	c.flushPendingWrites()
	if err := c.sendEncrypted(buildChannelEOF(c.ch.remoteID)); err != nil {
		return c.finish(err)
	}
	if err := c.sendEncrypted(buildChannelClose(c.ch.remoteID)); err != nil {
		return c.finish(err)
	}
	return c.finish(nil)
}

// finish closes the transport and the done channel exactly once. The
// event loop stays open, so late transport callbacks can still post.
func (c *Connection) finish(_ error) error {
	c.closeOnce.Do(func() {
		if c.kexTimer != nil {
			c.kexTimer.Stop()
			c.kexTimer = nil
		}
		c.ch.phase = ChanClosed
		c.phase = PhaseClosed
		_ = c.transport.Close()
		close(c.done)
	})
	return nil
}

// --- plaintext/ciphertext send helpers ---

func (c *Connection) sendPlain(payload []byte) error {
	packet, err := protocol.BuildPacket(payload, false)
	if err != nil {
		return err
	}
	return c.transport.Send(packet)
}

func (c *Connection) sendEncrypted(payload []byte) error {
	packet, err := c.cipherState.Encrypt(payload)
	if err != nil {
		return err
	}
	return c.transport.Send(packet)
}

func (c *Connection) sendUnimplementedPlain(payload []byte) error {
	level.Debug(c.logger).Log("msg", "unrecognized message", "type", protocol.MessageType(firstByte(payload)))
	return c.sendUnimplemented()
}
