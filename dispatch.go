package sshc

import (
	"github.com/go-kit/log/level"

	"github.com/msgboxio/sshc/protocol"
)

// handleUniversal answers the handful of message types legal in any phase
//: IGNORE and DEBUG are dropped, UNIMPLEMENTED is logged and
// counted, DISCONNECT ends the connection. ok reports
// whether payload was one of these; when ok is true the caller must not
// also run its phase-specific dispatch on the same payload.
func (c *Connection) handleUniversal(payload []byte) (ok bool, err error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch protocol.MessageType(payload[0]) {
	case protocol.SSHMsgIgnore:
		return true, nil
	case protocol.SSHMsgDebug:
		return true, nil
	case protocol.SSHMsgUnimplemented:
		c.unimplementedCount++
		level.Debug(c.logger).Log("msg", "peer sent UNIMPLEMENTED", "count", c.unimplementedCount)
		return true, nil
	case protocol.SSHMsgExtInfo:
		// Extension negotiation (RFC 8308); sshc advertises and needs none.
		return true, nil
	case protocol.SSHMsgDisconnect:
		reason, desc := parseDisconnect(payload)
		return true, protocol.KexErrf("peer disconnected: %s: %s", reason, desc)
	default:
		return false, nil
	}
}

// parseDisconnect extracts the reason code and description from
// SSH_MSG_DISCONNECT.
func parseDisconnect(payload []byte) (protocol.DisconnectReason, string) {
	reasonCode, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return 0, ""
	}
	desc, _, ok := protocol.ReadString(payload, off)
	if !ok {
		return protocol.DisconnectReason(reasonCode), ""
	}
	return protocol.DisconnectReason(reasonCode), string(desc)
}

// dispatchActive routes one decrypted payload once the channel is active
//: channel data ferries to the caller, window
// accounting replenishes the local window, GLOBAL_REQUEST gets answered
// by replyGlobalRequest, and CHANNEL_CLOSE/EOF wind the session down.
func (c *Connection) dispatchActive(payload []byte) error {
	if len(payload) == 0 {
		return protocol.ProtocolErrf("empty payload")
	}
	switch protocol.MessageType(payload[0]) {
	case protocol.SSHMsgChannelData:
		data, err := parseChannelData(payload)
		if err != nil {
			return err
		}
		return c.deliverChannelData(data)

	case protocol.SSHMsgChannelExtendedData:
		_, data, err := parseChannelExtendedData(payload)
		if err != nil {
			return err
		}
		return c.deliverChannelData(data)

	case protocol.SSHMsgChannelWindowAdjust:
		add, err := parseWindowAdjust(payload)
		if err != nil {
			return err
		}
		c.ch.remoteWindow += add
		c.flushPendingWrites()
		return nil

	case protocol.SSHMsgChannelEOF:
		level.Debug(c.logger).Log("msg", "remote sent CHANNEL_EOF")
		return nil

	case protocol.SSHMsgChannelClose:
		level.Info(c.logger).Log("msg", "remote closed channel")
		return c.finish(nil)

	case protocol.SSHMsgGlobalRequest:
		return c.replyGlobalRequest(payload)

	case protocol.SSHMsgRequestSuccess, protocol.SSHMsgRequestFailure:
		// Replies to a GLOBAL_REQUEST sshc never sends; ignore.
		return nil

	default:
		return c.sendUnimplemented()
	}
}

// replyGlobalRequest answers a GLOBAL_REQUEST: REQUEST_SUCCESS for the one
// request name sshc recognizes ("keepalive@openssh.com"), REQUEST_FAILURE
// for anything else, and nothing at all when want_reply is false.
func (c *Connection) replyGlobalRequest(payload []byte) error {
	name, off, ok := protocol.ReadString(payload, 1)
	wantReply := false
	if ok && len(payload) > off {
		wantReply = payload[off] != 0
	}
	if !wantReply {
		return nil
	}
	if ok && string(name) == "keepalive@openssh.com" {
		return c.sendEncrypted([]byte{protocol.MsgRequestSuccess})
	}
	return c.sendEncrypted([]byte{protocol.MsgRequestFailure})
}

// sendUnimplemented answers an unrecognized message type with
// SSH_MSG_UNIMPLEMENTED carrying its sequence number, per RFC 4253 §11.4.
func (c *Connection) sendUnimplemented() error {
	b := []byte{protocol.MsgUnimplemented}
	b = protocol.AppendUint32(b, c.cipherState.seqIn-1)
	return c.sendEncrypted(b)
}
