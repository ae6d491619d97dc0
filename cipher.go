package sshc

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/msgboxio/sshc/cryptoprim"
	"github.com/msgboxio/sshc/protocol"
)

// TransportCipher is the post-NEWKEYS encrypt/decrypt state for one
// direction pair: AES-128-CTR confidentiality plus
// HMAC-SHA-256 integrity, in either encrypt-then-MAC or MAC-then-encrypt
// framing depending on which MAC algorithm negotiation picked.
//
// Sequence numbers start at initialEncryptedSeq, not zero:
// KEXINIT, KEXDH_INIT/REPLY, and NEWKEYS already occupy sequence
// numbers 0-2 in each direction before encryption takes effect.
type TransportCipher struct {
	etm bool

	streamEnc cipher.Stream
	streamDec cipher.Stream
	macKeyEnc []byte
	macKeyDec []byte

	seqOut uint32
	seqIn  uint32

	inbound         []byte
	headerDecrypted bool
	packetLen       uint32
	decryptedUpTo   int
}

// newTransportCipher builds a TransportCipher from the session's derived
// keys, ready to encrypt in the client-to-server direction and decrypt
// server-to-client.
func newTransportCipher(keys derivedKeys, algorithms negotiatedAlgorithms, seqOut, seqIn uint32) (*TransportCipher, error) {
	streamEnc, err := cryptoprim.CTRStream(keys.encC2S, keys.ivC2S)
	if err != nil {
		return nil, err
	}
	streamDec, err := cryptoprim.CTRStream(keys.encS2C, keys.ivS2C)
	if err != nil {
		return nil, err
	}
	return &TransportCipher{
		etm:       isETM(algorithms.mac),
		streamEnc: streamEnc,
		streamDec: streamDec,
		macKeyEnc: keys.macC2S,
		macKeyDec: keys.macS2C,
		seqOut:    seqOut,
		seqIn:     seqIn,
	}, nil
}

// Encrypt frames and encrypts one outbound payload, advancing seqOut.
func (tc *TransportCipher) Encrypt(payload []byte) ([]byte, error) {
	plain, err := protocol.BuildPacket(payload, tc.etm)
	if err != nil {
		return nil, err
	}

	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], tc.seqOut)

	var out []byte
	if tc.etm {
		lengthField := plain[:4]
		rest := plain[4:]
		cipherText := make([]byte, len(rest))
		tc.streamEnc.XORKeyStream(cipherText, rest)

		macInput := append(append([]byte{}, seq[:]...), lengthField...)
		macInput = append(macInput, cipherText...)
		mac := cryptoprim.HMACSHA256(tc.macKeyEnc, macInput)

		out = make([]byte, 0, len(lengthField)+len(cipherText)+len(mac))
		out = append(out, lengthField...)
		out = append(out, cipherText...)
		out = append(out, mac...)
	} else {
		cipherText := make([]byte, len(plain))
		tc.streamEnc.XORKeyStream(cipherText, plain)

		macInput := append(append([]byte{}, seq[:]...), plain...)
		mac := cryptoprim.HMACSHA256(tc.macKeyEnc, macInput)

		out = make([]byte, 0, len(cipherText)+len(mac))
		out = append(out, cipherText...)
		out = append(out, mac...)
	}

	tc.seqOut++
	return out, nil
}

// Feed appends newly-arrived bytes to the inbound buffer.
func (tc *TransportCipher) Feed(b []byte) {
	tc.inbound = append(tc.inbound, b...)
}

// Next attempts to extract, verify, and decrypt one complete packet from
// the front of the inbound buffer. ok is false when more bytes are needed;
// that is not an error.
func (tc *TransportCipher) Next() (payload []byte, ok bool, err error) {
	if tc.etm {
		return tc.nextETM()
	}
	return tc.nextMtE()
}

func (tc *TransportCipher) nextETM() ([]byte, bool, error) {
	if len(tc.inbound) < 4 {
		return nil, false, nil
	}
	packetLen := binary.BigEndian.Uint32(tc.inbound[:4])
	if packetLen > protocol.MaxPacketSize {
		return nil, false, protocol.ProtocolErrf("packet length %d exceeds maximum", packetLen)
	}
	total := 4 + int(packetLen) + protocol.HMACSHA256Size
	if len(tc.inbound) < total {
		return nil, false, nil
	}

	lengthField := tc.inbound[:4]
	cipherText := tc.inbound[4 : 4+int(packetLen)]
	gotMac := tc.inbound[4+int(packetLen) : total]

	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], tc.seqIn)
	macInput := append(append([]byte{}, seq[:]...), lengthField...)
	macInput = append(macInput, cipherText...)
	wantMac := cryptoprim.HMACSHA256(tc.macKeyDec, macInput)
	if !cryptoprim.ConstantTimeEqual(wantMac, gotMac) {
		return nil, false, &protocol.MacVerificationError{}
	}

	plain := make([]byte, len(cipherText))
	tc.streamDec.XORKeyStream(plain, cipherText)

	payload, ok := extractPayload(plain)
	if !ok {
		return nil, false, protocol.ProtocolErrf("invalid padding length in decrypted packet")
	}

	tc.inbound = tc.inbound[total:]
	tc.seqIn++
	return payload, true, nil
}

func (tc *TransportCipher) nextMtE() ([]byte, bool, error) {
	const block = protocol.AESBlockSize

	if !tc.headerDecrypted {
		if len(tc.inbound) < block {
			return nil, false, nil
		}
		tc.streamDec.XORKeyStream(tc.inbound[:block], tc.inbound[:block])
		tc.decryptedUpTo = block
		tc.packetLen = binary.BigEndian.Uint32(tc.inbound[:4])
		if tc.packetLen > protocol.MaxPacketSize {
			return nil, false, protocol.ProtocolErrf("packet length %d exceeds maximum", tc.packetLen)
		}
		tc.headerDecrypted = true
	}

	total := 4 + int(tc.packetLen) + protocol.HMACSHA256Size
	if len(tc.inbound) < total {
		return nil, false, nil
	}

	if tc.decryptedUpTo < 4+int(tc.packetLen) {
		rest := tc.inbound[tc.decryptedUpTo : 4+int(tc.packetLen)]
		tc.streamDec.XORKeyStream(rest, rest)
		tc.decryptedUpTo = 4 + int(tc.packetLen)
	}

	plainPacket := tc.inbound[:4+int(tc.packetLen)]
	gotMac := tc.inbound[4+int(tc.packetLen) : total]

	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], tc.seqIn)
	macInput := append(append([]byte{}, seq[:]...), plainPacket...)
	wantMac := cryptoprim.HMACSHA256(tc.macKeyDec, macInput)
	if !cryptoprim.ConstantTimeEqual(wantMac, gotMac) {
		return nil, false, &protocol.MacVerificationError{}
	}

	payload, ok := extractPayload(plainPacket[4:])
	if !ok {
		return nil, false, protocol.ProtocolErrf("invalid padding length in decrypted packet")
	}

	tc.inbound = tc.inbound[total:]
	tc.headerDecrypted = false
	tc.packetLen = 0
	tc.decryptedUpTo = 0
	tc.seqIn++
	return payload, true, nil
}

// extractPayload strips the padding_length byte and trailing padding from
// a decrypted padlen||payload||padding region.
func extractPayload(plain []byte) ([]byte, bool) {
	if len(plain) < 1 {
		return nil, false
	}
	padLen := int(plain[0])
	if padLen < protocol.MinPadding || 1+padLen > len(plain) {
		return nil, false
	}
	return plain[1 : len(plain)-padLen], true
}
