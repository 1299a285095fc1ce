package fsm

import "github.com/ecat-io/dataplane-master/internal/wire"

// StepResult is the outcome of one cooperative step of a protocol
// sub-state-machine (§9 "cooperative sub-FSM dispatch"): Pending means
// the datagram must be requeued and the sub-FSM stepped again next
// cycle; Ok and Err both mean the transfer concluded and Success should
// be consulted to tell them apart.
type StepResult uint8

const (
	Pending StepResult = iota
	Ok
	Err
)

// CoEFSM drives one SDO transfer. It is an external collaborator (§1):
// a black box exposing transfer()/exec()/success() semantics.
type CoEFSM interface {
	Transfer(req *SDORequest)
	Exec(datagram *wire.Datagram) StepResult
	Success() bool
}

// FoEFSM drives one file-over-EtherCAT transfer.
type FoEFSM interface {
	Transfer(req *FoERequest)
	Exec(datagram *wire.Datagram) StepResult
	Success() bool
}

// SoEFSM drives one servo-over-EtherCAT transfer.
type SoEFSM interface {
	Transfer(req *SoERequest)
	Exec(datagram *wire.Datagram) StepResult
	Success() bool
}
