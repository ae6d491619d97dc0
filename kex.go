package sshc

import (
	"crypto/rand"
	"math/big"

	"github.com/msgboxio/sshc/cryptoprim"
	"github.com/msgboxio/sshc/protocol"
)

// exchangeHashInput bundles everything SHA-256(H) is computed over
//.
type exchangeHashInput struct {
	clientIdent, serverIdent   []byte // V_C, V_S, without CR LF
	clientKexInit, serverKexInit []byte // I_C, I_S, full payload incl. msg type
	hostKeyBlob                 []byte // K_S
	clientKexValue, serverKexValue []byte // Q_C/e, Q_S/f, both raw big-endian
	isX25519                    bool
	sharedSecret                *big.Int // K, as mpint
}

// computeExchangeHash builds H per RFC 4253 §8: a flat concatenation of
// string(V_C), string(V_S), string(I_C), string(I_S), string(K_S), then
// either mpint(e)/mpint(f) (DH group14) or string(Q_C)/string(Q_S)
// (curve25519, RFC 5656 §4 substitutes raw octet strings for mpints), then
// mpint(K).
func computeExchangeHash(in exchangeHashInput) [32]byte {
	b := make([]byte, 0, 512)
	b = protocol.AppendString(b, in.clientIdent)
	b = protocol.AppendString(b, in.serverIdent)
	b = protocol.AppendString(b, in.clientKexInit)
	b = protocol.AppendString(b, in.serverKexInit)
	b = protocol.AppendString(b, in.hostKeyBlob)
	if in.isX25519 {
		b = protocol.AppendString(b, in.clientKexValue)
		b = protocol.AppendString(b, in.serverKexValue)
	} else {
		b = protocol.AppendMpint(b, new(big.Int).SetBytes(in.clientKexValue))
		b = protocol.AppendMpint(b, new(big.Int).SetBytes(in.serverKexValue))
	}
	b = protocol.AppendMpint(b, in.sharedSecret)
	return cryptoprim.SHA256(b)
}

// derivedKeys holds the six session keys/IVs RFC 4253 §7.2 derives from a
// single KEX. sshc only ever needs a single HASH block per
// key since AES-128 (16 bytes) and HMAC-SHA-256 (32 bytes) both fit within
// one SHA-256 output.
type derivedKeys struct {
	ivC2S, ivS2C   []byte
	encC2S, encS2C []byte
	macC2S, macS2C []byte
}

// deriveKeys implements RFC 4253 §7.2: KEY = HASH(K || H || letter ||
// session_id), where session_id is H from the *first* KEX on this
// connection (here, always this KEX's own H, since sshc never rekeys).
func deriveKeys(sharedSecret *big.Int, h [32]byte, sessionID []byte) derivedKeys {
	kBytes := protocol.AppendMpint(nil, sharedSecret)

	derive := func(letter byte, size int) []byte {
		buf := make([]byte, 0, len(kBytes)+32+1+len(sessionID))
		buf = append(buf, kBytes...)
		buf = append(buf, h[:]...)
		buf = append(buf, letter)
		buf = append(buf, sessionID...)
		digest := cryptoprim.SHA256(buf)
		return digest[:size]
	}

	return derivedKeys{
		ivC2S:  derive('A', protocol.AESBlockSize),
		ivS2C:  derive('B', protocol.AESBlockSize),
		encC2S: derive('C', 16),
		encS2C: derive('D', 16),
		macC2S: derive('E', protocol.HMACSHA256Size),
		macS2C: derive('F', protocol.HMACSHA256Size),
	}
}

// mpintBytes renders the content bytes of v's SSH mpint encoding: the
// two's-complement value without the 4-byte length prefix.
func mpintBytes(v *big.Int) []byte {
	b := protocol.AppendMpint(nil, v)
	return b[4:]
}

// beginKex generates this side's ephemeral keypair for the negotiated kex
// algorithm and returns the KEXDH_INIT/KEX_ECDH_INIT payload to send.
func beginKex(algorithm string) (ephemeralKex, []byte, error) {
	if isX25519Kex(algorithm) {
		priv, pub, err := cryptoprim.GenerateX25519Keypair(rand.Reader)
		if err != nil {
			return ephemeralKex{}, nil, err
		}
		payload := []byte{protocol.MsgKexDHInit}
		payload = protocol.AppendString(payload, pub[:])
		return ephemeralKex{isX25519: true, x25519Priv: priv, x25519Pub: pub}, payload, nil
	}

	priv, pub, err := cryptoprim.DHGroup14Keypair(rand.Reader)
	if err != nil {
		return ephemeralKex{}, nil, err
	}
	payload := []byte{protocol.MsgKexDHInit}
	payload = protocol.AppendMpint(payload, pub)
	return ephemeralKex{isX25519: false, dhPrivate: priv, dhPublic: pub}, payload, nil
}

// isX25519Kex reports whether algorithm is one of the curve25519-sha256
// variants rather than diffie-hellman-group14-sha256.
func isX25519Kex(algorithm string) bool {
	return algorithm == "curve25519-sha256" || algorithm == "curve25519-sha256@libssh.org"
}

// parsedKexDHReply is the server's KEXDH_REPLY/KEX_ECDH_REPLY: host key, server's ephemeral public value, and the exchange hash
// signature.
type parsedKexDHReply struct {
	hostKeyBlob  []byte
	serverPublic []byte // raw octets (X25519) or big-endian mpint content (DH)
	signature    []byte
}

func parseKexDHReply(payload []byte) (*parsedKexDHReply, error) {
	if len(payload) < 1 || payload[0] != protocol.MsgKexDHReply {
		return nil, protocol.KexErrf("expected KEXDH_REPLY, got message type %d", firstByte(payload))
	}
	off := 1
	hostKey, off, ok := protocol.ReadString(payload, off)
	if !ok {
		return nil, protocol.KexErrf("truncated KEXDH_REPLY: host key")
	}
	serverPublic, off, ok := protocol.ReadString(payload, off)
	if !ok {
		return nil, protocol.KexErrf("truncated KEXDH_REPLY: server public value")
	}
	sig, _, ok := protocol.ReadString(payload, off)
	if !ok {
		return nil, protocol.KexErrf("truncated KEXDH_REPLY: signature")
	}
	return &parsedKexDHReply{hostKeyBlob: hostKey, serverPublic: serverPublic, signature: sig}, nil
}

func firstByte(b []byte) int {
	if len(b) == 0 {
		return -1
	}
	return int(b[0])
}

// computeSharedSecret finishes the KEX begun by beginKex, producing K as a
// big.Int suitable for AppendMpint/mpintBytes regardless of which
// algorithm was used.
func computeSharedSecret(e ephemeralKex, serverPublic []byte) (*big.Int, error) {
	if e.isX25519 {
		var peer [32]byte
		copy(peer[:], serverPublic)
		secret, err := cryptoprim.X25519SharedSecret(e.x25519Priv, peer)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(secret), nil
	}
	f := new(big.Int).SetBytes(serverPublic)
	return cryptoprim.DHGroup14Shared(f, e.dhPrivate), nil
}
