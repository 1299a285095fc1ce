package fsm

import (
	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/domain"
	"github.com/ecat-io/dataplane-master/internal/scheduler"
	"github.com/ecat-io/dataplane-master/internal/wire"
)

// State is the request FSM's own coarse state (§4.5).
type State uint8

const (
	StateIdle State = iota
	StateReady
	StateSDORequest
	StateRegRequest
	StateFoERequest
	StateSoERequest
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateSDORequest:
		return "sdo_request"
	case StateRegRequest:
		return "reg_request"
	case StateFoERequest:
		return "foe_request"
	case StateSoERequest:
		return "soe_request"
	default:
		return "unknown"
	}
}

// Option configures a RequestFSM at construction.
type Option func(*RequestFSM)

// WithLogger attaches a logger for request-failure diagnostics (§7).
func WithLogger(log *zap.SugaredLogger) Option {
	return func(f *RequestFSM) { f.log = log }
}

// RequestFSM drives one slave's aperiodic request slot (§3, §4.5). It
// reuses a single borrowed datagram across differently-shaped requests,
// resizing its payload window per kind.
type RequestFSM struct {
	slave    *Slave
	datagram *wire.Datagram
	state    State

	sdo *SDORequest
	reg *RegRequest
	foe *FoERequest
	soe *SoERequest

	coe CoEFSM
	foa FoEFSM
	soa SoEFSM

	log *zap.SugaredLogger
}

// New constructs a request FSM bound to a slave, its shared datagram
// slot, and its three protocol sub-state-machines.
func New(slave *Slave, datagram *wire.Datagram, coe CoEFSM, foa FoEFSM, soa SoEFSM, opts ...Option) *RequestFSM {
	f := &RequestFSM{
		slave:    slave,
		datagram: datagram,
		state:    StateIdle,
		coe:      coe,
		foa:      foa,
		soa:      soa,
		log:      zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// State reports the FSM's current state.
func (f *RequestFSM) State() State { return f.state }

// Ready lifts an idle FSM into the ready state, the only external
// trigger that resumes a machine parked by an abort (§4.5).
func (f *RequestFSM) Ready() {
	if f.state == StateIdle {
		f.state = StateReady
	}
}

// Clear drops any in-progress request reference without resolving it —
// used when the owning slave config is torn down mid-cycle (§9's
// "discovered with null" case is the read-side mirror of this).
func (f *RequestFSM) Clear() {
	f.sdo, f.reg, f.foe, f.soe = nil, nil, nil, nil
	f.state = StateIdle
}

// Exec steps the FSM once. Per §4.5/§5, a datagram currently in flight
// suspends the step entirely until the next cycle.
func (f *RequestFSM) Exec(sched scheduler.Scheduler) {
	if f.datagram.State.InFlight() {
		return
	}

	switch f.state {
	case StateIdle:
		// no-op; only Ready() lifts this.
	case StateReady:
		f.stateReady(sched)
	case StateSDORequest:
		f.stepSDO(sched)
	case StateRegRequest:
		f.stepReg(sched)
	case StateFoERequest:
		f.stepFoE(sched)
	case StateSoERequest:
		f.stepSoE(sched)
	}

	// Unconditional, even on an idle/no-op tick (§9 supplemented feature 5).
	sched.OutputStats(f.datagram)
}

// stateReady tries each request kind in strict priority order: SDO,
// register, FoE, SoE. The first kind that claims the slot wins; a kind
// that finds nothing queued, or that aborts without claiming, falls
// through to the next (§4.5; DESIGN.md Open Question decision 5).
func (f *RequestFSM) stateReady(sched scheduler.Scheduler) {
	if f.tryStartSDO(sched) {
		return
	}
	if f.tryStartReg(sched) {
		return
	}
	if f.tryStartFoE(sched) {
		return
	}
	f.tryStartSoE(sched)
}

func (f *RequestFSM) gatedAckErrOrInit() bool {
	return f.slave.ALState.HasAckErr() || f.slave.ALState.Base() == Init
}

func (f *RequestFSM) gatedAckErr() bool {
	return f.slave.ALState.HasAckErr()
}

// tryStartSDO gates on ACK_ERR or INIT. An aborted request returns the
// FSM to idle and reports "not claimed", so ready() still tries the
// register queue this same tick.
func (f *RequestFSM) tryStartSDO(sched scheduler.Scheduler) bool {
	req, ok := f.slave.SDOQueue.Dequeue()
	if !ok {
		return false
	}
	if f.gatedAckErrOrInit() {
		req.finish(false)
		f.state = StateIdle
		f.log.Warnw("sdo request aborted", "al_state", f.slave.ALState.Base(), "ack_err", f.slave.ALState.HasAckErr())
		return false
	}

	f.sdo = req
	f.coe.Transfer(req)
	f.state = StateSDORequest
	f.stepSDO(sched)
	return true
}

// tryStartReg serves the internal queue before the external one, gates
// on ACK_ERR only (no INIT check), and — unlike SDO/SoE — an aborted
// register request DOES claim the slot: ready() stops here rather than
// falling through to FoE/SoE this tick (§9 supplemented feature 4 and
// DESIGN.md Open Question decision 5, traced from
// ec_fsm_slave_action_process_reg's distinct return
// value on its abort path).
func (f *RequestFSM) tryStartReg(sched scheduler.Scheduler) bool {
	req, found := f.slave.RegQueueInternal.FindQueued(func(r *RegRequest) RequestState { return r.State })
	if !found {
		var ok bool
		req, ok = f.slave.RegQueueExternal.Dequeue()
		if !ok {
			return false
		}
	}

	if f.gatedAckErr() {
		req.finish(false)
		f.state = StateIdle
		f.log.Warnw("register request aborted", "ack_err", true)
		return true
	}

	f.reg = req
	req.State = RequestBusy
	if req.Dir == domain.DirInput {
		f.datagram.SetupFPRD(f.slave.Config.StationAddress, req.Address, len(req.Data))
	} else {
		f.datagram.SetupFPWR(f.slave.Config.StationAddress, req.Address, req.Data)
	}
	sched.QueueExternalDatagram(f.datagram)
	f.state = StateRegRequest
	return true
}

// tryStartFoE gates on ACK_ERR only. An abort leaves the FSM state
// untouched (stays ready) and reports "not claimed", so ready() still
// tries SoE this tick — the original's third distinct abort shape
// (DESIGN.md Open Question decision 5).
func (f *RequestFSM) tryStartFoE(sched scheduler.Scheduler) bool {
	req, ok := f.slave.FoEQueue.Dequeue()
	if !ok {
		return false
	}
	if f.gatedAckErr() {
		req.finish(false)
		f.log.Warnw("foe request aborted", "ack_err", true)
		return false
	}

	f.foe = req
	f.foa.Transfer(req)
	f.state = StateFoERequest
	f.stepFoE(sched)
	return true
}

// tryStartSoE gates on ACK_ERR or INIT, same shape as SDO. It is the
// last kind tried, so its claimed/not-claimed distinction has no
// further fallthrough to matter, but it is reported for consistency.
func (f *RequestFSM) tryStartSoE(sched scheduler.Scheduler) bool {
	req, ok := f.slave.SoEQueue.Dequeue()
	if !ok {
		return false
	}
	if f.gatedAckErrOrInit() {
		req.finish(false)
		f.state = StateIdle
		f.log.Warnw("soe request aborted", "al_state", f.slave.ALState.Base(), "ack_err", f.slave.ALState.HasAckErr())
		return false
	}

	f.soe = req
	f.soa.Transfer(req)
	f.state = StateSoERequest
	f.stepSoE(sched)
	return true
}

func (f *RequestFSM) stepSDO(sched scheduler.Scheduler) {
	if f.sdo == nil {
		f.state = StateReady
		return
	}
	switch f.coe.Exec(f.datagram) {
	case Pending:
		sched.QueueExternalDatagram(f.datagram)
	default:
		f.sdo.finish(f.coe.Success())
		f.sdo = nil
		f.state = StateReady
	}
}

func (f *RequestFSM) stepReg(sched scheduler.Scheduler) {
	if f.reg == nil {
		f.state = StateReady
		return
	}

	ok := f.datagram.State == wire.StateReceived && f.datagram.WorkingCounter == 1
	if ok && f.reg.Dir == domain.DirInput {
		copy(f.reg.Data, f.datagram.Payload)
	}
	f.reg.finish(ok)
	f.reg = nil
	f.state = StateReady
}

func (f *RequestFSM) stepFoE(sched scheduler.Scheduler) {
	if f.foe == nil {
		f.state = StateReady
		return
	}
	switch f.foa.Exec(f.datagram) {
	case Pending:
		sched.QueueExternalDatagram(f.datagram)
	default:
		f.foe.finish(f.foa.Success())
		f.foe = nil
		f.state = StateReady
	}
}

func (f *RequestFSM) stepSoE(sched scheduler.Scheduler) {
	if f.soe == nil {
		f.state = StateReady
		return
	}
	switch f.soa.Exec(f.datagram) {
	case Pending:
		sched.QueueExternalDatagram(f.datagram)
	default:
		f.soe.finish(f.soa.Success())
		f.soe = nil
		f.state = StateReady
	}
}
