package fsm

import "github.com/ecat-io/dataplane-master/internal/domain"

// Slave holds one slave's AL-state and its four aperiodic request
// queues (§3 Per-slave Request FSM). Register requests keep two queues:
// an internal one the slave's own configuration owns (served first,
// never removed on completion) and an external one the application
// submits to (served second, consumed FIFO) — §9 supplemented feature 4.
type Slave struct {
	Config  *domain.SlaveConfig
	ALState ALState

	SDOQueue         queue[SDORequest]
	RegQueueInternal queue[RegRequest]
	RegQueueExternal queue[RegRequest]
	FoEQueue         queue[FoERequest]
	SoEQueue         queue[SoERequest]
}

// NewSlave constructs a slave with empty request queues.
func NewSlave(cfg *domain.SlaveConfig) *Slave {
	return &Slave{Config: cfg, ALState: NewALState(Init, false)}
}

// SubmitSDO enqueues an SDO request for this slave.
func (s *Slave) SubmitSDO(req *SDORequest) { s.SDOQueue.Enqueue(req) }

// SubmitReg enqueues an externally-submitted register request.
func (s *Slave) SubmitReg(req *RegRequest) { s.RegQueueExternal.Enqueue(req) }

// SubmitInternalReg registers a standing, slave-owned register request
// (e.g. a periodic diagnostic read) into the internal queue.
func (s *Slave) SubmitInternalReg(req *RegRequest) { s.RegQueueInternal.Enqueue(req) }

// SubmitFoE enqueues a file-over-EtherCAT request.
func (s *Slave) SubmitFoE(req *FoERequest) { s.FoEQueue.Enqueue(req) }

// SubmitSoE enqueues a servo-over-EtherCAT request.
func (s *Slave) SubmitSoE(req *SoERequest) { s.SoEQueue.Enqueue(req) }
