package cryptoprim

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestX25519Agreement(t *testing.T) {
	priv1, pub1, err := GenerateX25519Keypair(rand.Reader)
	require.NoError(t, err)
	priv2, pub2, err := GenerateX25519Keypair(rand.Reader)
	require.NoError(t, err)

	s1, err := X25519SharedSecret(priv1, pub2)
	require.NoError(t, err)
	s2, err := X25519SharedSecret(priv2, pub1)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Len(t, s1, 32)
}

func TestDHGroup14Agreement(t *testing.T) {
	x1, e1, err := DHGroup14Keypair(rand.Reader)
	require.NoError(t, err)
	x2, e2, err := DHGroup14Keypair(rand.Reader)
	require.NoError(t, err)

	k1 := DHGroup14Shared(e2, x1)
	k2 := DHGroup14Shared(e1, x2)
	assert.Equal(t, 0, k1.Cmp(k2))
}

func TestConstantTimeEqual(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := append([]byte{}, a...)
	assert.True(t, ConstantTimeEqual(a, b))
	b[0] = 9
	assert.False(t, ConstantTimeEqual(a, b))
}

func TestCTRStreamRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	iv := bytes.Repeat([]byte{0x22}, 16)

	encStream, err := CTRStream(key, iv)
	require.NoError(t, err)
	plain := []byte("hello, ssh transport cipher")
	cipherText := make([]byte, len(plain))
	encStream.XORKeyStream(cipherText, plain)

	decStream, err := CTRStream(key, iv)
	require.NoError(t, err)
	gotPlain := make([]byte, len(cipherText))
	decStream.XORKeyStream(gotPlain, cipherText)

	assert.Equal(t, plain, gotPlain)
}
