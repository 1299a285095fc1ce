// Package wire models a single EtherCAT datagram: the fixed-layout wire
// unit that carries one command, one address, a payload window and a
// working-counter slot through the frame (spec §3, §6).
package wire

import "bytes"

// Command is an EtherCAT datagram command code.
type Command uint8

const (
	CommandFPRD Command = iota // physical read
	CommandFPWR                // physical write
	CommandLRD                 // logical read
	CommandLWR                 // logical write
	CommandLRW                 // logical read-write
)

func (c Command) String() string {
	switch c {
	case CommandFPRD:
		return "FPRD"
	case CommandFPWR:
		return "FPWR"
	case CommandLRD:
		return "LRD"
	case CommandLWR:
		return "LWR"
	case CommandLRW:
		return "LRW"
	default:
		return "UNKNOWN"
	}
}

// State is the datagram's lifecycle state as observed by the core at its
// suspension points (§5).
type State uint8

const (
	StateUnused State = iota
	StateQueued
	StateSent
	StateReceived
	StateTimedOut
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateQueued:
		return "queued"
	case StateSent:
		return "sent"
	case StateReceived:
		return "received"
	case StateTimedOut:
		return "timed-out"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// InFlight reports whether the datagram has been handed to the scheduler
// but not yet resolved — the condition that suspends the request FSM
// (§4.5, §5).
func (s State) InFlight() bool {
	return s == StateQueued || s == StateSent
}

// DeviceIndex selects which physical link a datagram travels: the main
// port or the backup port of a redundant pair.
type DeviceIndex uint8

const (
	DeviceMain DeviceIndex = iota
	DeviceBackup
)

func (d DeviceIndex) String() string {
	if d == DeviceBackup {
		return "backup"
	}
	return "main"
}

// MaxPayload is the wire's maximum datagram payload: the hard constraint
// the domain packing algorithm never exceeds (§4.2). A standard (non-jumbo)
// Ethernet frame leaves 1486 bytes for EtherCAT datagram payload once the
// 14-byte Ethernet header, 2-byte EtherCAT frame header, and one
// datagram's own 10-byte header + 2-byte working counter are accounted
// for.
const MaxPayload = 1486

// Datagram is one EtherCAT command. Payload is always a window borrowed
// from elsewhere — a domain's process image, or a slave's single
// aperiodic-request buffer — never owned by the Datagram itself.
type Datagram struct {
	Name           string
	Command        Command
	Address        uint32
	Payload        []byte
	WorkingCounter uint16
	State          State
	DeviceIndex    DeviceIndex
}

// NewLogical builds a datagram addressed via the domain's shared logical
// address space (LRD/LWR/LRW).
func NewLogical(name string, cmd Command, address uint32, payload []byte) *Datagram {
	return &Datagram{Name: name, Command: cmd, Address: address, Payload: payload, State: StateUnused}
}

// logicalAddress packs a station address and a local memory offset into
// the 32-bit address field used by FPRD/FPWR (station in the high word,
// offset in the low word, as on the wire).
func logicalAddress(station, offset uint16) uint32 {
	return uint32(station)<<16 | uint32(offset)
}

// Resize changes the active payload window length without reallocating,
// assuming the backing array (sized to MaxPayload by the owner) has
// sufficient capacity. Used by the request FSM, which reuses one
// backing buffer across differently-sized aperiodic requests.
func (d *Datagram) Resize(size int) {
	d.Payload = d.Payload[:size]
}

// SetupFPRD configures the datagram as a physical read of size bytes at
// station:offset, zeroing the payload window (mirrors ec_datagram_fprd +
// ec_datagram_zero).
func (d *Datagram) SetupFPRD(station, offset uint16, size int) {
	d.Command = CommandFPRD
	d.Address = logicalAddress(station, offset)
	d.Resize(size)
	for i := range d.Payload {
		d.Payload[i] = 0
	}
	d.State = StateUnused
}

// SetupFPWR configures the datagram as a physical write of data at
// station:offset, copying data into the payload window.
func (d *Datagram) SetupFPWR(station, offset uint16, data []byte) {
	d.Command = CommandFPWR
	d.Address = logicalAddress(station, offset)
	d.Resize(len(data))
	copy(d.Payload, data)
	d.State = StateUnused
}

// WindowEqual reports whether this datagram's payload is byte-identical
// to ref over [offset, offset+size) — the equality test the redundancy
// merge in domain.Process relies on to detect "data changed on this
// link" (§4.4).
func (d *Datagram) WindowEqual(ref []byte, offset, size int) bool {
	return bytes.Equal(d.Payload[offset:offset+size], ref[offset:offset+size])
}
