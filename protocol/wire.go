// Package protocol implements the RFC 4251/4253/4254 wire types: the
// binary packet codec, big-endian primitive readers/writers, and the
// message-type/payload constants the rest of sshc dispatches on.
package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

const (
	MinPadding       = 4
	AESBlockSize     = 16
	HMACSHA256Size   = 32
	MaxPacketSize    = 35000
	DefaultWindow    = 0x8000
	ChannelMaxPacket = 0x2000
)

// Message type bytes, RFC 4253/4252/4254.
const (
	MsgDisconnect            = 1
	MsgIgnore                = 2
	MsgUnimplemented         = 3
	MsgDebug                 = 4
	MsgServiceRequest        = 5
	MsgServiceAccept         = 6
	MsgExtInfo               = 7
	MsgKexInit               = 20
	MsgNewKeys               = 21
	MsgKexDHInit             = 30
	MsgKexDHReply            = 31
	MsgUserauthRequest       = 50
	MsgUserauthFailure       = 51
	MsgUserauthSuccess       = 52
	MsgUserauthPKOK          = 60
	MsgGlobalRequest         = 80
	MsgRequestSuccess        = 81
	MsgRequestFailure        = 82
	MsgChannelOpen           = 90
	MsgChannelOpenConf       = 91
	MsgChannelOpenFailure    = 92
	MsgChannelWindowAdjust   = 93
	MsgChannelData           = 94
	MsgChannelExtendedData   = 95
	MsgChannelEOF            = 96
	MsgChannelClose          = 97
	MsgChannelRequest        = 98
	MsgChannelSuccess        = 99
	MsgChannelFailure        = 100
)

// NeedMore is returned (as ok=false) by the decoders below when the
// supplied buffer does not yet hold a complete unit. It is not an error:
// callers simply wait for more bytes to arrive.

// PutUint32 writes v big-endian into b[off:off+4].
func PutUint32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:off+4], v)
}

// Uint32 reads a big-endian uint32 at b[off:off+4]. ok is false on
// truncation.
func Uint32(b []byte, off int) (v uint32, ok bool) {
	if len(b) < off+4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(b[off : off+4]), true
}

// ReadUint32 reads a big-endian uint32 at b[off:] and returns the offset
// just past it, for chaining through a sequence of fixed-width fields the
// way ReadString chains through length-prefixed ones.
func ReadUint32(b []byte, off int) (v uint32, next int, ok bool) {
	v, ok = Uint32(b, off)
	if !ok {
		return 0, off, false
	}
	return v, off + 4, true
}

// AppendUint32 appends the big-endian encoding of v to b.
func AppendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// AppendString appends a length-prefixed byte string (RFC 4251 "string").
// Used both for UTF-8 text and arbitrary byte blobs.
func AppendString(b []byte, s []byte) []byte {
	b = AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// ReadString reads a length-prefixed string starting at b[off:]. It
// returns the string bytes, the offset just past it, and ok=false on
// truncation.
func ReadString(b []byte, off int) (s []byte, next int, ok bool) {
	l, ok := Uint32(b, off)
	if !ok {
		return nil, off, false
	}
	start := off + 4
	end := start + int(l)
	if end < start || len(b) < end {
		return nil, off, false
	}
	return b[start:end], end, true
}

// MustReadString is the strict variant: truncation is a protocol error in
// contexts where the caller has already validated overall packet length
// (e.g. decoding a payload whose own length was checked by the codec).
func MustReadString(b []byte, off int) (s []byte, next int, err error) {
	s, next, ok := ReadString(b, off)
	if !ok {
		return nil, off, ErrTruncated
	}
	return s, next, nil
}

// AppendMpint appends v as an SSH mpint: length-prefixed two's-complement
// big-endian, with a leading zero byte inserted whenever the MSB of the
// first content byte would otherwise be set, so that positive values stay
// positive. Zero encodes as a zero-length string.
func AppendMpint(b []byte, v *big.Int) []byte {
	if v.Sign() == 0 {
		return AppendUint32(b, 0)
	}
	raw := v.Bytes()
	if raw[0]&0x80 != 0 {
		out := make([]byte, len(raw)+1)
		copy(out[1:], raw)
		raw = out
	}
	return AppendString(b, raw)
}

// ReadMpint reads an mpint at b[off:], returning it as a big.Int.
func ReadMpint(b []byte, off int) (v *big.Int, next int, ok bool) {
	raw, next, ok := ReadString(b, off)
	if !ok {
		return nil, off, false
	}
	v = new(big.Int).SetBytes(raw)
	return v, next, true
}

// BuildPacket frames payload per RFC 4253 §6: packet_length, padding_length,
// payload, random padding. etm controls whether the 4-byte length field is
// excluded (true) or included (false) from the block-alignment congruence,
// depending on whether the negotiated MAC is encrypt-then-MAC.
func BuildPacket(payload []byte, etm bool) ([]byte, error) {
	const block = AESBlockSize
	l := 1 + len(payload)
	if !etm {
		l += 4
	}
	padLen := MinPadding + (block-((l+MinPadding)%block))%block
	packetLen := 1 + len(payload) + padLen

	out := make([]byte, 0, 4+packetLen)
	out = AppendUint32(out, uint32(packetLen))
	out = append(out, byte(padLen))
	out = append(out, payload...)
	pad := make([]byte, padLen)
	if _, err := rand.Read(pad); err != nil {
		return nil, err
	}
	out = append(out, pad...)
	return out, nil
}

// ParsePacket parses one plaintext (pre-NEWKEYS) packet from the front of
// data. ok is false (NeedMore) when data does not yet hold a complete
// packet; it is not an error.
func ParsePacket(data []byte) (payload []byte, consumed int, ok bool) {
	if len(data) < 5 {
		return nil, 0, false
	}
	packetLen, _ := Uint32(data, 0)
	total := 4 + int(packetLen)
	if len(data) < total {
		return nil, 0, false
	}
	padLen := int(data[4])
	payloadEnd := total - padLen
	if payloadEnd < 5 {
		return nil, 0, false
	}
	return data[5:payloadEnd], total, true
}
