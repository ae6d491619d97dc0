package protocol

import "fmt"

// MessageType names the first byte of a decrypted payload.
type MessageType byte

const (
	SSHMsgDisconnect          MessageType = MsgDisconnect
	SSHMsgIgnore              MessageType = MsgIgnore
	SSHMsgUnimplemented       MessageType = MsgUnimplemented
	SSHMsgDebug               MessageType = MsgDebug
	SSHMsgServiceRequest      MessageType = MsgServiceRequest
	SSHMsgServiceAccept       MessageType = MsgServiceAccept
	SSHMsgExtInfo             MessageType = MsgExtInfo
	SSHMsgKexInit             MessageType = MsgKexInit
	SSHMsgNewKeys             MessageType = MsgNewKeys
	SSHMsgKexDHInit           MessageType = MsgKexDHInit
	SSHMsgKexDHReply          MessageType = MsgKexDHReply
	SSHMsgUserauthRequest     MessageType = MsgUserauthRequest
	SSHMsgUserauthFailure     MessageType = MsgUserauthFailure
	SSHMsgUserauthSuccess     MessageType = MsgUserauthSuccess
	SSHMsgUserauthPKOK        MessageType = MsgUserauthPKOK
	SSHMsgGlobalRequest       MessageType = MsgGlobalRequest
	SSHMsgRequestSuccess      MessageType = MsgRequestSuccess
	SSHMsgRequestFailure      MessageType = MsgRequestFailure
	SSHMsgChannelOpen         MessageType = MsgChannelOpen
	SSHMsgChannelOpenConf     MessageType = MsgChannelOpenConf
	SSHMsgChannelOpenFailure  MessageType = MsgChannelOpenFailure
	SSHMsgChannelWindowAdjust MessageType = MsgChannelWindowAdjust
	SSHMsgChannelData         MessageType = MsgChannelData
	SSHMsgChannelExtendedData MessageType = MsgChannelExtendedData
	SSHMsgChannelEOF          MessageType = MsgChannelEOF
	SSHMsgChannelClose        MessageType = MsgChannelClose
	SSHMsgChannelRequest      MessageType = MsgChannelRequest
	SSHMsgChannelSuccess      MessageType = MsgChannelSuccess
	SSHMsgChannelFailure      MessageType = MsgChannelFailure
)

var messageNames = map[MessageType]string{
	SSHMsgDisconnect:          "SSH_MSG_DISCONNECT",
	SSHMsgIgnore:              "SSH_MSG_IGNORE",
	SSHMsgUnimplemented:       "SSH_MSG_UNIMPLEMENTED",
	SSHMsgDebug:               "SSH_MSG_DEBUG",
	SSHMsgServiceRequest:      "SSH_MSG_SERVICE_REQUEST",
	SSHMsgServiceAccept:       "SSH_MSG_SERVICE_ACCEPT",
	SSHMsgExtInfo:             "SSH_MSG_EXT_INFO",
	SSHMsgKexInit:             "SSH_MSG_KEXINIT",
	SSHMsgNewKeys:             "SSH_MSG_NEWKEYS",
	SSHMsgKexDHInit:           "SSH_MSG_KEXDH_INIT",
	SSHMsgKexDHReply:          "SSH_MSG_KEXDH_REPLY",
	SSHMsgUserauthRequest:     "SSH_MSG_USERAUTH_REQUEST",
	SSHMsgUserauthFailure:     "SSH_MSG_USERAUTH_FAILURE",
	SSHMsgUserauthSuccess:     "SSH_MSG_USERAUTH_SUCCESS",
	SSHMsgUserauthPKOK:        "SSH_MSG_USERAUTH_PK_OK",
	SSHMsgGlobalRequest:       "SSH_MSG_GLOBAL_REQUEST",
	SSHMsgRequestSuccess:      "SSH_MSG_REQUEST_SUCCESS",
	SSHMsgRequestFailure:      "SSH_MSG_REQUEST_FAILURE",
	SSHMsgChannelOpen:         "SSH_MSG_CHANNEL_OPEN",
	SSHMsgChannelOpenConf:     "SSH_MSG_CHANNEL_OPEN_CONFIRMATION",
	SSHMsgChannelOpenFailure:  "SSH_MSG_CHANNEL_OPEN_FAILURE",
	SSHMsgChannelWindowAdjust: "SSH_MSG_CHANNEL_WINDOW_ADJUST",
	SSHMsgChannelData:         "SSH_MSG_CHANNEL_DATA",
	SSHMsgChannelExtendedData: "SSH_MSG_CHANNEL_EXTENDED_DATA",
	SSHMsgChannelEOF:          "SSH_MSG_CHANNEL_EOF",
	SSHMsgChannelClose:        "SSH_MSG_CHANNEL_CLOSE",
	SSHMsgChannelRequest:      "SSH_MSG_CHANNEL_REQUEST",
	SSHMsgChannelSuccess:      "SSH_MSG_CHANNEL_SUCCESS",
	SSHMsgChannelFailure:      "SSH_MSG_CHANNEL_FAILURE",
}

func (m MessageType) String() string {
	if name, ok := messageNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SSH_MSG(%d)", byte(m))
}

// ChannelExtendedDataTypeStderr is the only extended data type sshc ever
// sees on the single session channel it opens.
const ChannelExtendedDataTypeStderr = 1

// DisconnectReason is the reason code carried by SSH_MSG_DISCONNECT.
type DisconnectReason uint32

func (r DisconnectReason) String() string {
	switch r {
	case 1:
		return "HOST_NOT_ALLOWED_TO_CONNECT"
	case 2:
		return "PROTOCOL_ERROR"
	case 3:
		return "KEY_EXCHANGE_FAILED"
	case 4:
		return "RESERVED"
	case 5:
		return "MAC_ERROR"
	case 6:
		return "COMPRESSION_ERROR"
	case 7:
		return "SERVICE_NOT_AVAILABLE"
	case 8:
		return "PROTOCOL_VERSION_NOT_SUPPORTED"
	case 9:
		return "HOST_KEY_NOT_VERIFIABLE"
	case 10:
		return "CONNECTION_LOST"
	case 11:
		return "BY_APPLICATION"
	case 12:
		return "TOO_MANY_CONNECTIONS"
	case 13:
		return "AUTH_CANCELLED_BY_USER"
	case 14:
		return "NO_MORE_AUTH_METHODS_AVAILABLE"
	case 15:
		return "ILLEGAL_USER_NAME"
	default:
		return fmt.Sprintf("DISCONNECT(%d)", uint32(r))
	}
}
