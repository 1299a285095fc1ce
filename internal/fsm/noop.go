package fsm

import "github.com/ecat-io/dataplane-master/internal/wire"

// NoopCoE, NoopFoE and NoopSoE are the default CoEFSM/FoEFSM/SoEFSM
// collaborators: each completes its transfer successfully on the first
// Exec, with no mailbox I/O of its own. A real master plugs in an actual
// CANopen/file/servo mailbox-protocol state machine here; these stand in
// for one so RequestFSM has a concrete collaborator to step, the same
// role SimScheduler plays for the Scheduler boundary (§1's "external
// collaborator" list).

type NoopCoE struct{}

func NewNoopCoE() *NoopCoE { return &NoopCoE{} }

func (*NoopCoE) Transfer(req *SDORequest)                {}
func (*NoopCoE) Exec(datagram *wire.Datagram) StepResult { return Ok }
func (*NoopCoE) Success() bool                           { return true }

type NoopFoE struct{}

func NewNoopFoE() *NoopFoE { return &NoopFoE{} }

func (*NoopFoE) Transfer(req *FoERequest)                {}
func (*NoopFoE) Exec(datagram *wire.Datagram) StepResult { return Ok }
func (*NoopFoE) Success() bool                           { return true }

type NoopSoE struct{}

func NewNoopSoE() *NoopSoE { return &NoopSoE{} }

func (*NoopSoE) Transfer(req *SoERequest)                {}
func (*NoopSoE) Exec(datagram *wire.Datagram) StepResult { return Ok }
func (*NoopSoE) Success() bool                           { return true }
