package sshc

import (
	"crypto/rand"

	"golang.org/x/crypto/ssh"

	"github.com/msgboxio/sshc/protocol"
)

const (
	serviceUserauth   = "ssh-userauth"
	serviceConnection = "ssh-connection"
	methodPublicKey   = "publickey"
)

// buildServiceRequest builds SSH_MSG_SERVICE_REQUEST for "ssh-userauth"
//.
func buildServiceRequest() []byte {
	b := []byte{protocol.MsgServiceRequest}
	return protocol.AppendString(b, []byte(serviceUserauth))
}

// buildAuthRequestSigned builds the publickey USERAUTH_REQUEST with its
// signature already attached: sshc signs and presents on the first
// attempt rather than querying first, since the server
// either accepts the certificate outright or answers PK_OK expecting a
// retry. The fallback path is driven by the caller via AuthAwaitingPKOK.
func buildAuthRequestSigned(creds Credentials, sessionID []byte) ([]byte, error) {
	certBlob := creds.CertBlob()
	keyType := creds.KeyType()

	signedBlob := buildSignedBlob(sessionID, creds.Username, keyType, certBlob)
	sig, err := creds.Signer.Sign(rand.Reader, signedBlob)
	if err != nil {
		return nil, err
	}
	sigWire := marshalSignature(sig)

	b := []byte{protocol.MsgUserauthRequest}
	b = protocol.AppendString(b, []byte(creds.Username))
	b = protocol.AppendString(b, []byte(serviceConnection))
	b = protocol.AppendString(b, []byte(methodPublicKey))
	b = append(b, 1) // has_signature = TRUE
	b = protocol.AppendString(b, []byte(keyType))
	b = protocol.AppendString(b, certBlob)
	b = protocol.AppendString(b, sigWire)
	return b, nil
}

// buildAuthRequestQuery builds the query form (has_signature=FALSE). The
// orchestrator does not send it: when the server answers the signed
// attempt with PK_OK, the signed form is sent again.
func buildAuthRequestQuery(creds Credentials) []byte {
	certBlob := creds.CertBlob()
	keyType := creds.KeyType()

	b := []byte{protocol.MsgUserauthRequest}
	b = protocol.AppendString(b, []byte(creds.Username))
	b = protocol.AppendString(b, []byte(serviceConnection))
	b = protocol.AppendString(b, []byte(methodPublicKey))
	b = append(b, 0) // has_signature = FALSE
	b = protocol.AppendString(b, []byte(keyType))
	b = protocol.AppendString(b, certBlob)
	return b
}

// buildSignedBlob constructs the data a publickey USERAUTH_REQUEST
// signature covers (RFC 4252 §7): session identifier, then the same
// fields the request itself carries with has_signature forced TRUE.
func buildSignedBlob(sessionID []byte, username, keyType string, certBlob []byte) []byte {
	b := protocol.AppendString(nil, sessionID)
	b = append(b, protocol.MsgUserauthRequest)
	b = protocol.AppendString(b, []byte(username))
	b = protocol.AppendString(b, []byte(serviceConnection))
	b = protocol.AppendString(b, []byte(methodPublicKey))
	b = append(b, 1)
	b = protocol.AppendString(b, []byte(keyType))
	b = protocol.AppendString(b, certBlob)
	return b
}

// marshalSignature wire-encodes an *ssh.Signature as RFC 4253 §6.6's
// signature blob: string(format) || string(blob).
func marshalSignature(sig *ssh.Signature) []byte {
	b := protocol.AppendString(nil, []byte(sig.Format))
	b = protocol.AppendString(b, sig.Blob)
	return b
}

// parseUserauthFailure reads the continuation method-name list out of a
// USERAUTH_FAILURE payload; sshc only uses it for the diagnostic message
// since it has exactly one auth method to offer.
func parseUserauthFailure(payload []byte) ([]string, bool) {
	if len(payload) < 1 || payload[0] != protocol.MsgUserauthFailure {
		return nil, false
	}
	raw, _, ok := protocol.ReadString(payload, 1)
	if !ok {
		return nil, false
	}
	return splitNameList(string(raw)), true
}

// isUserauthPKOK reports whether payload is a bare SSH_MSG_USERAUTH_PK_OK.
func isUserauthPKOK(payload []byte) bool {
	return len(payload) >= 1 && payload[0] == protocol.MsgUserauthPKOK
}
