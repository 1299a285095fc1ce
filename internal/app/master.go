// Package app wires the domain engine, scheduler, and ambient transport
// into one runnable master process — the library half of the
// cmd/ecatmasterd binary, split the way the teacher splits
// modules/balancer/controlplane from modules/balancer/app/cmd/balancer.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/config"
	"github.com/ecat-io/dataplane-master/internal/domain"
	"github.com/ecat-io/dataplane-master/internal/fsm"
	"github.com/ecat-io/dataplane-master/internal/scheduler"
	"github.com/ecat-io/dataplane-master/internal/transport"
	"github.com/ecat-io/dataplane-master/internal/wire"
)

// Option configures a Master at construction, e.g. to swap its default
// in-process loopback scheduler for a real one (see WithRawTransport,
// linux-only).
type Option func(*Master)

// Master owns the set of domains built from configuration, one request
// FSM per domain's slave, and drives their cyclic queue/process/Exec
// steps (spec §3 "Lifecycles", §4.5, §5 "Scheduling model").
type Master struct {
	cfg         *config.Config
	domains     []*domain.Domain
	slaves      []*fsm.Slave
	fsms        []*fsm.RequestFSM
	sched       scheduler.Scheduler
	dispatch    func(context.Context) error
	linkMonitor *transport.LinkMonitor
	log         *zap.SugaredLogger
}

// New builds a Master from configuration: one domain.Domain and one
// fsm.RequestFSM per config.DomainConfig, each domain populated with
// FMMUs from the configured byte lists and finished at a distinct
// logical base address. By default the master dispatches cycles through
// an in-process loopback scheduler; pass WithRawTransport to drive a
// real pair of links instead.
func New(cfg *config.Config, log *zap.SugaredLogger, opts ...Option) (*Master, error) {
	sim := scheduler.NewSimScheduler(log)
	m := &Master{cfg: cfg, log: log, sched: sim}
	m.dispatch = func(ctx context.Context) error { return m.loopbackDispatch(ctx, sim) }

	var base uint32
	for i, dc := range cfg.Domains {
		d := domain.New(i, domain.WithMaxPayload(uint32(cfg.MaxPayload.Bytes())), domain.WithLogger(log))
		sc := &domain.SlaveConfig{Name: dc.Name}

		for _, size := range dc.OutputBytes {
			if err := d.AddFMMU(&domain.FMMUConfig{Slave: sc, Dir: domain.DirOutput, DataSize: size}); err != nil {
				return nil, fmt.Errorf("domain %q: %w", dc.Name, err)
			}
		}
		for _, size := range dc.InputBytes {
			if err := d.AddFMMU(&domain.FMMUConfig{Slave: sc, Dir: domain.DirInput, DataSize: size}); err != nil {
				return nil, fmt.Errorf("domain %q: %w", dc.Name, err)
			}
		}

		if err := d.Finish(base); err != nil {
			return nil, fmt.Errorf("finishing domain %q: %w", dc.Name, err)
		}
		base += d.Size()

		m.domains = append(m.domains, d)

		slave := fsm.NewSlave(sc)
		reqDatagram := wire.NewLogical(dc.Name+"-request", wire.CommandFPRD, 0, make([]byte, 0, wire.MaxPayload))
		m.slaves = append(m.slaves, slave)
		m.fsms = append(m.fsms, fsm.New(slave, reqDatagram, fsm.NewNoopCoE(), fsm.NewNoopFoE(), fsm.NewNoopSoE(), fsm.WithLogger(log)))
	}

	for _, o := range opts {
		o(m)
	}

	return m, nil
}

// Domains exposes the constructed domains, read-only, to diagnostics
// and the health reporter.
func (m *Master) Domains() []*domain.Domain { return m.domains }

// Slaves exposes each domain's request-FSM slave handle, read-only, so
// callers can submit aperiodic SDO/register/FoE/SoE requests (spec
// §4.5) between cycles.
func (m *Master) Slaves() []*fsm.Slave { return m.slaves }

// FSMs exposes each domain's request FSM, read-only, for diagnostics.
func (m *Master) FSMs() []*fsm.RequestFSM { return m.fsms }

// LinkMonitor exposes the transport's link monitor, if WithRawTransport
// configured one, so the caller can drive its netlink subscription
// loop (nil when running the default in-process loopback transport).
func (m *Master) LinkMonitor() *transport.LinkMonitor { return m.linkMonitor }

// RunCycle performs one queue/Exec/dispatch/process cycle across every
// domain and its request FSM (spec §4.3, §4.4, §4.5): domains stage
// their cyclic datagrams, each slave's request FSM is nudged ready and
// stepped so any queued aperiodic request rides along, the scheduler
// exchanges everything queued this tick, and domains reconcile the
// result.
func (m *Master) RunCycle(ctx context.Context) error {
	for _, d := range m.domains {
		d.Queue(m.sched)
	}
	for _, f := range m.fsms {
		f.Ready()
		f.Exec(m.sched)
	}

	if err := m.dispatch(ctx); err != nil {
		return err
	}

	for _, d := range m.domains {
		d.Process()
	}
	return nil
}

// loopbackDispatch is the default transport: every queued datagram is
// looped back to itself, with main reporting its pair's full expected
// working counter and backup left unanswered — a real bus response
// stand-in for demo/test runs.
func (m *Master) loopbackDispatch(ctx context.Context, sim *scheduler.SimScheduler) error {
	expected := make(map[*wire.Datagram]uint16)
	for _, d := range m.domains {
		for _, p := range d.Pairs() {
			expected[&p.Main] = p.ExpectedWorkingCounter
		}
	}

	return sim.Dispatch(ctx, func(dg *wire.Datagram) {
		dg.State = wire.StateReceived
		if wc, ok := expected[dg]; ok {
			dg.WorkingCounter = wc
		}
	})
}

// Healthy reports whether every domain currently reports a complete
// working counter (SPEC_FULL.md DOMAIN STACK's gRPC health wiring).
func (m *Master) Healthy() bool {
	for _, d := range m.domains {
		if d.State().WCState != domain.WCComplete {
			return false
		}
	}
	return len(m.domains) > 0
}
