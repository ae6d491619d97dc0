// Package cryptoprim is the thin contract over the cryptographic
// primitives sshc treats as an external collaborator: SHA-256,
// HMAC-SHA-256, AES-128-CTR, X25519, and DH modular exponentiation. sshc's
// protocol engine computes these primitives only through this package's
// functions, keeping the protocol-facing code separate from the raw
// crypto/aes, crypto/hmac, and curve25519 calls underneath; it still uses
// crypto/rand directly for randomness and holds the cipher.Stream values
// this package returns.
package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/curve25519"
)

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HMACSHA256 computes HMAC-SHA-256(key, data).
func HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// ConstantTimeEqual compares two MACs without short-circuiting on the
// first mismatch.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// CTRStream builds an AES-128-CTR keystream cipher for the given 16-byte
// key and 16-byte IV/counter block. The returned cipher.Stream is
// stateful: repeated XORKeyStream calls continue the counter, which is
// exactly the "IV advances by the number of AES blocks consumed" invariant
// the transport cipher depends on.
func CTRStream(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

// GenerateX25519Keypair returns a fresh ephemeral X25519 private scalar
// and its corresponding public point.
func GenerateX25519Keypair(rnd interface {
	Read([]byte) (int, error)
}) (priv, pub [32]byte, err error) {
	if _, err = rnd.Read(priv[:]); err != nil {
		return
	}
	// clamp per RFC 7748; curve25519.X25519 also clamps internally but
	// doing it here keeps the stored scalar itself well-formed.
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pubSlice)
	return
}

// X25519SharedSecret computes the X25519 shared secret between a local
// private scalar and a peer's public point.
func X25519SharedSecret(priv, peerPub [32]byte) ([]byte, error) {
	return curve25519.X25519(priv[:], peerPub[:])
}
