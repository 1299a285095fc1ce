// Package fsm implements the per-slave aperiodic request state machine
// (spec §3 Per-slave Request FSM, §4.5): a cooperative multiplexer that
// services queued SDO, register, FoE, and SoE requests one at a time
// over a single shared datagram slot.
package fsm

// ALStateBase is a slave's application-layer state, independent of the
// ACK_ERR flag.
type ALStateBase uint8

const (
	Init ALStateBase = iota
	PreOp
	SafeOp
	Op
)

func (s ALStateBase) String() string {
	switch s {
	case Init:
		return "INIT"
	case PreOp:
		return "PREOP"
	case SafeOp:
		return "SAFEOP"
	case Op:
		return "OP"
	default:
		return "UNKNOWN"
	}
}

// ALState packs a base state with the ACK_ERR flag (§4.5, §7), mirroring
// how the wire actually reports it: a status word with a base state in
// the low bits and an error flag in bit 4.
type ALState uint8

const ackErrFlag ALState = 0x10

// NewALState combines a base state and an error flag into one value.
func NewALState(base ALStateBase, ackErr bool) ALState {
	s := ALState(base)
	if ackErr {
		s |= ackErrFlag
	}
	return s
}

// Base strips the ACK_ERR flag.
func (s ALState) Base() ALStateBase { return ALStateBase(s &^ ackErrFlag) }

// HasAckErr reports whether the slave's last reported state carried the
// error flag — the gating condition every request kind checks at
// dequeue time (§4.5).
func (s ALState) HasAckErr() bool { return s&ackErrFlag != 0 }
