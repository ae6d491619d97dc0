package sshc

import (
	"crypto/rand"
	"strings"

	"github.com/msgboxio/sshc/protocol"
)

// Preferred algorithm lists. Order matters: negotiation is
// strict first-match from these lists against whatever the server offers.
const (
	preferredKex        = "curve25519-sha256,curve25519-sha256@libssh.org,diffie-hellman-group14-sha256"
	preferredHostKey    = "ssh-ed25519"
	preferredCipher     = "aes128-ctr"
	preferredMAC        = "hmac-sha2-256-etm@openssh.com,hmac-sha2-256"
	preferredCompress   = "none"
	preferredLanguages  = ""
)

// buildKexInit constructs the client's SSH_MSG_KEXINIT payload: message type, 16-byte cookie, ten algorithm name-lists,
// first_kex_packet_follows=0, reserved=0.
func buildKexInit() ([]byte, error) {
	cookie := make([]byte, 16)
	if _, err := rand.Read(cookie); err != nil {
		return nil, err
	}

	b := make([]byte, 0, 256)
	b = append(b, byte(protocol.SSHMsgKexInit))
	b = append(b, cookie...)
	for _, list := range []string{
		preferredKex,
		preferredHostKey,
		preferredCipher, preferredCipher, // c->s, s->c
		preferredMAC, preferredMAC,
		preferredCompress, preferredCompress,
		preferredLanguages, preferredLanguages,
	} {
		b = protocol.AppendString(b, []byte(list))
	}
	b = append(b, 0) // first_kex_packet_follows
	b = protocol.AppendUint32(b, 0)
	return b, nil
}

// parsedKexInit holds the ten algorithm name-lists parsed out of a
// KEXINIT payload, in wire order.
type parsedKexInit struct {
	kex, hostKey                 []string
	cipherC2S, cipherS2C         []string
	macC2S, macS2C                []string
	compressC2S, compressS2C     []string
	languagesC2S, languagesS2C    []string
}

// parseKexInit parses a server KEXINIT payload (message-type byte
// included). It does not read the trailing first_kex_packet_follows
// byte or reserved field.
func parseKexInit(payload []byte) (*parsedKexInit, error) {
	if len(payload) < 1+16 || payload[0] != protocol.MsgKexInit {
		return nil, protocol.KexErrf("malformed KEXINIT header")
	}
	off := 1 + 16
	lists := make([][]string, 10)
	for i := range lists {
		raw, next, ok := protocol.ReadString(payload, off)
		if !ok {
			return nil, protocol.KexErrf("truncated KEXINIT algorithm list %d", i)
		}
		lists[i] = splitNameList(string(raw))
		off = next
	}
	return &parsedKexInit{
		kex: lists[0], hostKey: lists[1],
		cipherC2S: lists[2], cipherS2C: lists[3],
		macC2S: lists[4], macS2C: lists[5],
		compressC2S: lists[6], compressS2C: lists[7],
		languagesC2S: lists[8], languagesS2C: lists[9],
	}, nil
}

func splitNameList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// firstMatch returns the first entry of preferred that also appears in
// offered, implementing the strict first-match negotiation discipline
//.
func firstMatch(preferred, offered []string) (string, bool) {
	offeredSet := make(map[string]struct{}, len(offered))
	for _, o := range offered {
		offeredSet[o] = struct{}{}
	}
	for _, p := range preferred {
		if _, ok := offeredSet[p]; ok {
			return p, true
		}
	}
	return "", false
}

// negotiate runs first-match independently for kex, cipher (client-to-
// server list; both directions use the same preference here), and mac.
// Failure of any one is fatal, with the server's first few offered
// entries named in the diagnostic.
func negotiate(server *parsedKexInit) (negotiatedAlgorithms, error) {
	kex, ok := firstMatch(splitNameList(preferredKex), server.kex)
	if !ok {
		return negotiatedAlgorithms{}, kexErrNoMatch("kex", server.kex)
	}
	cipher, ok := firstMatch(splitNameList(preferredCipher), server.cipherC2S)
	if !ok {
		return negotiatedAlgorithms{}, kexErrNoMatch("cipher", server.cipherC2S)
	}
	mac, ok := firstMatch(splitNameList(preferredMAC), server.macC2S)
	if !ok {
		return negotiatedAlgorithms{}, kexErrNoMatch("mac", server.macC2S)
	}
	return negotiatedAlgorithms{kex: kex, cipher: cipher, mac: mac}, nil
}

func kexErrNoMatch(kind string, offered []string) *protocol.KexError {
	shown := offered
	if len(shown) > 4 {
		shown = shown[:4]
	}
	return protocol.KexErrf("no common %s algorithm; server offered: %s", kind, strings.Join(shown, ","))
}

// isETM reports whether the negotiated MAC is an encrypt-then-mac variant.
func isETM(mac string) bool {
	return strings.HasSuffix(mac, "-etm@openssh.com")
}
