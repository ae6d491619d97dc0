package protocol

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParsePacketRoundTrip(t *testing.T) {
	for _, etm := range []bool{true, false} {
		r := rand.New(rand.NewSource(1))
		for n := 0; n < 200; n++ {
			payload := make([]byte, r.Intn(MaxPacketSize-256))
			r.Read(payload)

			built, err := BuildPacket(payload, etm)
			require.NoError(t, err)

			got, consumed, ok := ParsePacket(built)
			require.True(t, ok)
			assert.Equal(t, len(built), consumed)
			assert.Equal(t, payload, got)
		}
	}
}

func TestBuildPacketPaddingValidity(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for _, etm := range []bool{true, false} {
		for n := 0; n < 200; n++ {
			payload := make([]byte, r.Intn(4096))
			built, err := BuildPacket(payload, etm)
			require.NoError(t, err)

			padLen := int(built[4])
			assert.GreaterOrEqual(t, padLen, MinPadding)
			assert.LessOrEqual(t, padLen, 255)

			rest := built[4:]
			if etm {
				assert.Equal(t, 0, len(rest)%AESBlockSize)
			} else {
				assert.Equal(t, 0, (len(built))%AESBlockSize)
			}
		}
	}
}

func TestParsePacketNeedMore(t *testing.T) {
	payload := []byte{20, 1, 2, 3}
	built, err := BuildPacket(payload, false)
	require.NoError(t, err)

	for n := 0; n < len(built); n++ {
		_, _, ok := ParsePacket(built[:n])
		assert.Falsef(t, ok, "expected NeedMore at %d/%d bytes", n, len(built))
	}
	_, _, ok := ParsePacket(built)
	assert.True(t, ok)
}

func TestBuildParseScenarioOne(t *testing.T) {
	payload := []byte{20, 1, 2, 3}
	built, err := BuildPacket(payload, false)
	require.NoError(t, err)

	packetLen, ok := Uint32(built, 0)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(packetLen), 1+4+4)

	padLen := built[4]
	assert.GreaterOrEqual(t, padLen, byte(MinPadding))
	assert.LessOrEqual(t, padLen, byte(255))

	got, _, ok := ParsePacket(built)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestAppendStringEmpty(t *testing.T) {
	got := AppendString(nil, nil)
	assert.Equal(t, []byte{0, 0, 0, 0}, got)
}

func TestAppendStringRoundTrip(t *testing.T) {
	b := AppendString(nil, []byte("hello"))
	s, next, ok := ReadString(b, 0)
	require.True(t, ok)
	assert.Equal(t, "hello", string(s))
	assert.Equal(t, len(b), next)
}

func TestMpintSign(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0, 0, 0, 0}},
		{128, []byte{0, 0, 0, 2, 0, 0x80}},
		{256, []byte{0, 0, 0, 2, 1, 0}},
	}
	for _, c := range cases {
		got := AppendMpint(nil, big.NewInt(c.v))
		assert.Equal(t, c.want, got, "mpint(%d)", c.v)
	}
}

func TestMpintRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 127, 128, 255, 256, 1 << 20} {
		b := AppendMpint(nil, big.NewInt(v))
		got, next, ok := ReadMpint(b, 0)
		require.True(t, ok)
		assert.Equal(t, len(b), next)
		assert.Equal(t, big.NewInt(v), got)
	}
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "SSH_MSG_KEXINIT", SSHMsgKexInit.String())
	assert.Contains(t, MessageType(250).String(), "SSH_MSG(250)")
}
