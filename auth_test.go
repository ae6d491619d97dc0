package sshc

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/msgboxio/sshc/protocol"
)

func testCredentials(t *testing.T) Credentials {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)

	cert := &ssh.Certificate{
		Key:             sshPub,
		CertType:        ssh.UserCert,
		KeyId:           "test-user",
		ValidPrincipals: []string{"test-user"},
		ValidAfter:      0,
		ValidBefore:     uint64(time.Now().Add(time.Hour).Unix()),
	}
	caSigner, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	require.NoError(t, cert.SignCert(rand.Reader, caSigner))

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	certSigner, err := ssh.NewCertSigner(cert, signer)
	require.NoError(t, err)

	return Credentials{Username: "test-user", Signer: certSigner, Certificate: cert}
}

func TestBuildAuthRequestSignedVerifies(t *testing.T) {
	creds := testCredentials(t)
	sessionID := []byte("session-identifier-bytes")

	req, err := buildAuthRequestSigned(creds, sessionID)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.MsgUserauthRequest), req[0])

	// Re-derive the signed blob the same way the server would, and check
	// the certificate's key verifies the embedded signature against it.
	off := 1
	username, off, ok := protocol.ReadString(req, off)
	require.True(t, ok)
	_, off, ok = protocol.ReadString(req, off) // service name
	require.True(t, ok)
	_, off, ok = protocol.ReadString(req, off) // method name
	require.True(t, ok)
	hasSig := req[off]
	off++
	require.Equal(t, byte(1), hasSig)
	keyType, off, ok := protocol.ReadString(req, off)
	require.True(t, ok)
	certBlob, off, ok := protocol.ReadString(req, off)
	require.True(t, ok)
	sigWire, _, ok := protocol.ReadString(req, off)
	require.True(t, ok)

	signedBlob := buildSignedBlob(sessionID, string(username), string(keyType), certBlob)
	sigFormat, soff, ok := protocol.ReadString(sigWire, 0)
	require.True(t, ok)
	sigBlob, _, ok := protocol.ReadString(sigWire, soff)
	require.True(t, ok)

	assert.NoError(t, creds.Certificate.Key.Verify(signedBlob, &ssh.Signature{Format: string(sigFormat), Blob: sigBlob}))
}

func TestBuildAuthRequestQueryHasNoSignature(t *testing.T) {
	creds := testCredentials(t)
	req := buildAuthRequestQuery(creds)
	off := 1
	_, off, _ = protocol.ReadString(req, off)
	_, off, _ = protocol.ReadString(req, off)
	_, off, _ = protocol.ReadString(req, off)
	assert.Equal(t, byte(0), req[off])
}

func TestParseUserauthFailure(t *testing.T) {
	b := []byte{protocol.MsgUserauthFailure}
	b = protocol.AppendString(b, []byte("publickey,password"))
	b = append(b, 0)
	methods, ok := parseUserauthFailure(b)
	require.True(t, ok)
	assert.Equal(t, []string{"publickey", "password"}, methods)
}

func TestIsUserauthPKOK(t *testing.T) {
	assert.True(t, isUserauthPKOK([]byte{protocol.MsgUserauthPKOK, 1, 2}))
	assert.False(t, isUserauthPKOK([]byte{protocol.MsgUserauthSuccess}))
}
