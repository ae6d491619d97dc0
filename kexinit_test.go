package sshc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgboxio/sshc/protocol"
)

func TestBuildParseKexInitRoundTrip(t *testing.T) {
	payload, err := buildKexInit()
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.MsgKexInit), payload[0])

	parsed, err := parseKexInit(payload)
	require.NoError(t, err)
	assert.Contains(t, parsed.kex, "curve25519-sha256")
	assert.Contains(t, parsed.cipherC2S, "aes128-ctr")
}

func TestNegotiateFirstMatch(t *testing.T) {
	server := &parsedKexInit{
		kex:       []string{"diffie-hellman-group14-sha256", "curve25519-sha256"},
		cipherC2S: []string{"aes128-ctr", "aes256-ctr"},
		macC2S:    []string{"hmac-sha2-256", "hmac-sha2-256-etm@openssh.com"},
	}
	algs, err := negotiate(server)
	require.NoError(t, err)
	assert.Equal(t, "curve25519-sha256", algs.kex)
	assert.Equal(t, "aes128-ctr", algs.cipher)
	assert.Equal(t, "hmac-sha2-256-etm@openssh.com", algs.mac)
}

func TestNegotiateNoCommonKexAlgorithm(t *testing.T) {
	server := &parsedKexInit{
		kex:       []string{"diffie-hellman-group1-sha1"},
		cipherC2S: []string{"aes128-ctr"},
		macC2S:    []string{"hmac-sha2-256"},
	}
	_, err := negotiate(server)
	require.Error(t, err)
	var kexErr *protocol.KexError
	require.ErrorAs(t, err, &kexErr)
}

func TestIsETM(t *testing.T) {
	assert.True(t, isETM("hmac-sha2-256-etm@openssh.com"))
	assert.False(t, isETM("hmac-sha2-256"))
}

func TestParseKexInitTruncated(t *testing.T) {
	_, err := parseKexInit([]byte{byte(protocol.MsgKexInit)})
	require.Error(t, err)
}
