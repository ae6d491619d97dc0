package sshc

import (
	"time"

	"github.com/go-kit/log"
	"golang.org/x/crypto/ssh"
)

// Default terminal dimensions and protocol constants.
const (
	DefaultCols = 80
	DefaultRows = 24

	// kexTimeout bounds the window between sending the client's
	// KEX_*_INIT and receiving the server's KEXDH_REPLY/KEX_ECDH_REPLY;
	// the only cancellable timer sshc runs.
	kexTimeout = 8000 * time.Millisecond

	// initialEncryptedSeq is the sequence number both directions start
	// encryption at: KEXINIT, KEX_*_INIT (KEX_*_REPLY inbound), and
	// NEWKEYS are the three unencrypted packets, sequence numbers 0-2, sent
	// in each direction before encryption takes effect. The ident lines are
	// not packets and take no sequence number.
	initialEncryptedSeq uint32 = 3

	// clientIdentTag names this implementation in the SSH-2.0 ident line.
	clientIdentTag = "sshc_1.0"
)

// Credentials identifies the client to the server for publickey
// authentication with a certificate. The certificate and its
// signer are sourced externally: PEM loading and Ed25519 signature
// production are out of scope for the core, so Credentials
// simply wraps the types golang.org/x/crypto/ssh already exposes for
// exactly this collaborator boundary.
type Credentials struct {
	Username string

	// Signer produces the signature over the USERAUTH_REQUEST signed blob
	//. It is usually an *ssh.Certificate-backed signer
	// returned by ssh.NewCertSigner, wrapping an ssh.Signer over an Ed25519
	// private key.
	Signer ssh.Signer

	// Certificate is the certificate presented alongside the public key;
	// its Marshal() bytes are the certBlob the auth sub-machine signs and
	// sends.
	Certificate *ssh.Certificate
}

// KeyType returns the certificate's key type tag, e.g.
// "ssh-ed25519-cert-v01@openssh.com".
func (c Credentials) KeyType() string {
	return c.Certificate.Type()
}

// CertBlob returns the wire encoding of the certificate.
func (c Credentials) CertBlob() []byte {
	return c.Certificate.Marshal()
}

// HostKeyCallback is invoked once per KEX with the server host-key blob as
// received (K_S). The core only consumes K_S for exchange-hash
// computation; it never authenticates the server's identity itself.
// Verification policy is left entirely to the caller. Returning an error
// is fatal (KexError).
type HostKeyCallback func(hostKeyBlob []byte) error

// AcceptAnyHostKey is the zero-trust default: it makes no verification
// decision at all. Production callers must supply their own callback
// backed by a known-hosts store.
func AcceptAnyHostKey([]byte) error { return nil }

// Options configures a Connect call.
type Options struct {
	Cols, Rows int

	// OnPtyDenied is called (not fatal) if the server refuses the pty-req.
	OnPtyDenied func()

	// HostKeyCallback is called with K_S once per KEX; see above.
	HostKeyCallback HostKeyCallback

	// Logger receives structured logs from every component of the
	// connection. A nil Logger defaults to a go-kit logfmt logger on
	// stderr at info level.
	Logger log.Logger
}

// withDefaults fills in the zero-value fields of o and returns the result;
// it never mutates the receiver.
func (o Options) withDefaults() Options {
	if o.Cols == 0 {
		o.Cols = DefaultCols
	}
	if o.Rows == 0 {
		o.Rows = DefaultRows
	}
	if o.HostKeyCallback == nil {
		o.HostKeyCallback = AcceptAnyHostKey
	}
	if o.Logger == nil {
		o.Logger = defaultLogger()
	}
	return o
}
