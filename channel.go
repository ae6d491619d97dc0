package sshc

import (
	"github.com/msgboxio/sshc/protocol"
)

const (
	channelTypeSession    = "session"
	ptyTermType           = "xterm-256color"
	requestPtyReq         = "pty-req"
	requestShell          = "shell"
	requestWindowChange   = "window-change"
)

// buildChannelOpen builds SSH_MSG_CHANNEL_OPEN for a single "session"
// channel; sshc never opens a second channel.
func buildChannelOpen(localID uint32) []byte {
	b := []byte{protocol.MsgChannelOpen}
	b = protocol.AppendString(b, []byte(channelTypeSession))
	b = protocol.AppendUint32(b, localID)
	b = protocol.AppendUint32(b, protocol.DefaultWindow)
	b = protocol.AppendUint32(b, protocol.ChannelMaxPacket)
	return b
}

// buildPtyRequest builds the "pty-req" CHANNEL_REQUEST,
// want_reply TRUE so the orchestrator can observe denial.
func buildPtyRequest(remoteID uint32, cols, rows int) []byte {
	b := []byte{protocol.MsgChannelRequest}
	b = protocol.AppendUint32(b, remoteID)
	b = protocol.AppendString(b, []byte(requestPtyReq))
	b = append(b, 1) // want_reply
	b = protocol.AppendString(b, []byte(ptyTermType))
	b = protocol.AppendUint32(b, uint32(cols))
	b = protocol.AppendUint32(b, uint32(rows))
	b = protocol.AppendUint32(b, 0) // width in pixels
	b = protocol.AppendUint32(b, 0) // height in pixels
	b = protocol.AppendString(b, nil) // encoded terminal modes: empty
	return b
}

// buildShellRequest builds the "shell" CHANNEL_REQUEST.
func buildShellRequest(remoteID uint32) []byte {
	b := []byte{protocol.MsgChannelRequest}
	b = protocol.AppendUint32(b, remoteID)
	b = protocol.AppendString(b, []byte(requestShell))
	b = append(b, 1) // want_reply
	return b
}

// buildWindowChange builds the "window-change" CHANNEL_REQUEST issued on
// Resize; it never wants a reply.
func buildWindowChange(remoteID uint32, cols, rows int) []byte {
	b := []byte{protocol.MsgChannelRequest}
	b = protocol.AppendUint32(b, remoteID)
	b = protocol.AppendString(b, []byte(requestWindowChange))
	b = append(b, 0) // want_reply
	b = protocol.AppendUint32(b, uint32(cols))
	b = protocol.AppendUint32(b, uint32(rows))
	b = protocol.AppendUint32(b, 0)
	b = protocol.AppendUint32(b, 0)
	return b
}

// buildChannelData builds SSH_MSG_CHANNEL_DATA carrying the caller's bytes
// toward the remote shell's stdin.
func buildChannelData(remoteID uint32, data []byte) []byte {
	b := []byte{protocol.MsgChannelData}
	b = protocol.AppendUint32(b, remoteID)
	b = protocol.AppendString(b, data)
	return b
}

// buildWindowAdjust builds SSH_MSG_CHANNEL_WINDOW_ADJUST, replenishing the
// local receive window by bytesToAdd once the caller has drained that much.
// remoteID is the channel number as the server knows it (the "recipient
// channel" field), not sshc's own localID.
func buildWindowAdjust(remoteID uint32, bytesToAdd uint32) []byte {
	b := []byte{protocol.MsgChannelWindowAdjust}
	b = protocol.AppendUint32(b, remoteID)
	b = protocol.AppendUint32(b, bytesToAdd)
	return b
}

// buildChannelEOF/buildChannelClose wind the channel down.
func buildChannelEOF(remoteID uint32) []byte {
	b := []byte{protocol.MsgChannelEOF}
	return protocol.AppendUint32(b, remoteID)
}

func buildChannelClose(remoteID uint32) []byte {
	b := []byte{protocol.MsgChannelClose}
	return protocol.AppendUint32(b, remoteID)
}

// parsedChannelOpenConfirmation is CHANNEL_OPEN_CONFIRMATION's payload
//.
type parsedChannelOpenConfirmation struct {
	recipientChannel uint32 // echoes sshc's localID
	senderChannel    uint32 // the server's channel id: channelState.remoteID
	initialWindow    uint32
	maxPacketSize    uint32
}

func parseChannelOpenConfirmation(payload []byte) (*parsedChannelOpenConfirmation, error) {
	if len(payload) < 1 || payload[0] != protocol.MsgChannelOpenConf {
		return nil, protocol.ChannelErrf("not a CHANNEL_OPEN_CONFIRMATION")
	}
	recipient, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_OPEN_CONFIRMATION")
	}
	sender, off2, ok := protocol.ReadUint32(payload, off)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_OPEN_CONFIRMATION")
	}
	window, off3, ok := protocol.ReadUint32(payload, off2)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_OPEN_CONFIRMATION")
	}
	maxPacket, _, ok := protocol.ReadUint32(payload, off3)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_OPEN_CONFIRMATION")
	}
	return &parsedChannelOpenConfirmation{
		recipientChannel: recipient,
		senderChannel:    sender,
		initialWindow:    window,
		maxPacketSize:    maxPacket,
	}, nil
}

// parseChannelOpenFailure extracts the reason code and description out of
// CHANNEL_OPEN_FAILURE. The orchestrator ends the handshake with a
// ChannelError when this message arrives.
func parseChannelOpenFailure(payload []byte) (reasonCode uint32, description string, err error) {
	if len(payload) < 1 || payload[0] != protocol.MsgChannelOpenFailure {
		return 0, "", protocol.ChannelErrf("not a CHANNEL_OPEN_FAILURE")
	}
	_, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return 0, "", protocol.ChannelErrf("truncated CHANNEL_OPEN_FAILURE")
	}
	reasonCode, off2, ok := protocol.ReadUint32(payload, off)
	if !ok {
		return 0, "", protocol.ChannelErrf("truncated CHANNEL_OPEN_FAILURE")
	}
	desc, _, ok := protocol.ReadString(payload, off2)
	if !ok {
		return reasonCode, "", nil
	}
	return reasonCode, string(desc), nil
}

// parseChannelRequestReply reports whether a CHANNEL_SUCCESS/FAILURE
// payload (for pty-req or shell) indicates success.
func parseChannelRequestReply(payload []byte) (success bool, ok bool) {
	if len(payload) < 1 {
		return false, false
	}
	switch protocol.MessageType(payload[0]) {
	case protocol.SSHMsgChannelSuccess:
		return true, true
	case protocol.SSHMsgChannelFailure:
		return false, true
	default:
		return false, false
	}
}

// parseChannelData extracts the payload bytes from CHANNEL_DATA.
func parseChannelData(payload []byte) (data []byte, err error) {
	if len(payload) < 1 || payload[0] != protocol.MsgChannelData {
		return nil, protocol.ChannelErrf("not a CHANNEL_DATA")
	}
	_, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_DATA")
	}
	data, _, ok = protocol.ReadString(payload, off)
	if !ok {
		return nil, protocol.ChannelErrf("truncated CHANNEL_DATA")
	}
	return data, nil
}

// parseChannelExtendedData extracts the data type and payload bytes from
// CHANNEL_EXTENDED_DATA (stderr, in practice).
func parseChannelExtendedData(payload []byte) (dataType uint32, data []byte, err error) {
	if len(payload) < 1 || payload[0] != protocol.MsgChannelExtendedData {
		return 0, nil, protocol.ChannelErrf("not a CHANNEL_EXTENDED_DATA")
	}
	_, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return 0, nil, protocol.ChannelErrf("truncated CHANNEL_EXTENDED_DATA")
	}
	dataType, off2, ok := protocol.ReadUint32(payload, off)
	if !ok {
		return 0, nil, protocol.ChannelErrf("truncated CHANNEL_EXTENDED_DATA")
	}
	data, _, ok = protocol.ReadString(payload, off2)
	if !ok {
		return dataType, nil, protocol.ChannelErrf("truncated CHANNEL_EXTENDED_DATA")
	}
	return dataType, data, nil
}

// parseWindowAdjust extracts the byte count from CHANNEL_WINDOW_ADJUST;
// the recipient channel field is skipped.
func parseWindowAdjust(payload []byte) (bytesToAdd uint32, err error) {
	if len(payload) < 1 || payload[0] != protocol.MsgChannelWindowAdjust {
		return 0, protocol.ChannelErrf("not a CHANNEL_WINDOW_ADJUST")
	}
	_, off, ok := protocol.ReadUint32(payload, 1)
	if !ok {
		return 0, protocol.ChannelErrf("truncated CHANNEL_WINDOW_ADJUST")
	}
	bytesToAdd, _, ok = protocol.ReadUint32(payload, off)
	if !ok {
		return 0, protocol.ChannelErrf("truncated CHANNEL_WINDOW_ADJUST")
	}
	return bytesToAdd, nil
}
