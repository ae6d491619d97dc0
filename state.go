package sshc

import (
	"math/big"

	"github.com/msgboxio/sshc/internal/fsm"
)

// ConnPhase is the global connection phase. It never revisits
// a lower phase.
type ConnPhase int

const (
	PhaseIdentExchange ConnPhase = iota
	PhaseKex
	PhaseAuth
	PhaseChannelOpen
	PhaseActive
	PhaseClosed
	PhaseError
)

func (p ConnPhase) String() string {
	switch p {
	case PhaseIdentExchange:
		return "ident_exchange"
	case PhaseKex:
		return "kex"
	case PhaseAuth:
		return "auth"
	case PhaseChannelOpen:
		return "channel_open"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	case PhaseError:
		return "error"
	default:
		return "unknown_conn_phase"
	}
}

var connPhaseOrder = fsm.NewOrdered(
	PhaseIdentExchange, PhaseKex, PhaseAuth, PhaseChannelOpen, PhaseActive, PhaseClosed, PhaseError,
)

// KexPhase is the kex sub-machine's phase.
type KexPhase int

const (
	KexInit KexPhase = iota
	KexNegotiating
	KexExchanging
	KexComplete
)

func (p KexPhase) String() string {
	switch p {
	case KexInit:
		return "init"
	case KexNegotiating:
		return "negotiating"
	case KexExchanging:
		return "exchanging"
	case KexComplete:
		return "complete"
	default:
		return "unknown_kex_phase"
	}
}

var kexPhaseOrder = fsm.NewOrdered(KexInit, KexNegotiating, KexExchanging, KexComplete)

// AuthPhase is the auth sub-machine's phase.
type AuthPhase int

const (
	AuthInit AuthPhase = iota
	AuthServiceRequested
	// AuthSigned precedes AuthAwaitingPKOK: sshc presents its signed
	// publickey request optimistically on the first attempt (see
	// buildAuthRequestSigned) rather than querying first, so
	// AuthAwaitingPKOK is only reached if a permissive server answers
	// that optimistic attempt with PK_OK instead of success/failure.
	AuthSigned
	AuthAwaitingPKOK
	AuthComplete
	AuthFailed
)

func (p AuthPhase) String() string {
	switch p {
	case AuthInit:
		return "init"
	case AuthServiceRequested:
		return "service_requested"
	case AuthAwaitingPKOK:
		return "awaiting_pk_ok"
	case AuthSigned:
		return "signed"
	case AuthComplete:
		return "complete"
	case AuthFailed:
		return "failed"
	default:
		return "unknown_auth_phase"
	}
}

// authPhaseOrder treats "failed" as reachable from any non-terminal phase;
// it is handled as a special case in session.go rather than folded into the
// linear order (it is a side-exit, not a step further along the happy path).
var authPhaseOrder = fsm.NewOrdered(AuthInit, AuthServiceRequested, AuthSigned, AuthAwaitingPKOK, AuthComplete)

// ChanPhase is the channel sub-machine's phase.
type ChanPhase int

const (
	ChanInit ChanPhase = iota
	ChanOpening
	ChanOpen
	ChanPtyRequested
	ChanShellRequested
	ChanActive
	ChanClosed
)

func (p ChanPhase) String() string {
	switch p {
	case ChanInit:
		return "init"
	case ChanOpening:
		return "opening"
	case ChanOpen:
		return "open"
	case ChanPtyRequested:
		return "pty_requested"
	case ChanShellRequested:
		return "shell_requested"
	case ChanActive:
		return "active"
	case ChanClosed:
		return "closed"
	default:
		return "unknown_chan_phase"
	}
}

var chanPhaseOrder = fsm.NewOrdered(
	ChanInit, ChanOpening, ChanOpen, ChanPtyRequested, ChanShellRequested, ChanActive, ChanClosed,
)

// negotiatedAlgorithms is the (kex, cipher, mac) triple chosen by
// first-match negotiation.
type negotiatedAlgorithms struct {
	kex    string
	cipher string
	mac    string
}

// ephemeralKex is the tagged-union ephemeral secret: exactly one of the two
// branches is populated: either the DH fields or the X25519 fields.
type ephemeralKex struct {
	isX25519 bool

	// DH group14 branch
	dhPrivate *big.Int
	dhPublic  *big.Int

	// X25519 branch
	x25519Priv [32]byte
	x25519Pub  [32]byte
}

// kexState is the KEX sub-machine's full state.
type kexState struct {
	phase KexPhase

	clientKexInit []byte // raw payload, message-type byte included, no frame
	serverKexInit []byte

	algorithms negotiatedAlgorithms
	ephemeral  ephemeralKex
}

// authState is the auth sub-machine's state.
type authState struct {
	phase        AuthPhase
	receivedPKOK bool
	lastErr      error
}

// channelState is the channel sub-machine's state.
type channelState struct {
	phase ChanPhase

	localID  uint32 // always 0 in this single-channel design
	remoteID uint32 // 0 until CHANNEL_OPEN_CONFIRMATION; sentinel "not yet open"

	localWindow  uint32
	remoteWindow uint32

	ptySent   bool
	shellSent bool
}
