package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

// SimScheduler is an in-process stand-in for the master scheduler/
// dispatcher (§1 excludes the real one from the core). It loops every
// queued datagram back to itself after Dispatch is called, useful for
// exercising the domain engine and request FSM in tests and demos
// without a real bus. Main and backup queues are drained concurrently
// via errgroup, grounded on LinkMonitor.Run's errgroup.WithContext
// dispatch pattern.
type SimScheduler struct {
	main, backup []*wire.Datagram
	external     []*wire.Datagram
	log          *zap.SugaredLogger
}

// NewSimScheduler constructs an empty simulated scheduler.
func NewSimScheduler(log *zap.SugaredLogger) *SimScheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SimScheduler{log: log}
}

// QueueDatagram implements Scheduler.
func (s *SimScheduler) QueueDatagram(d *wire.Datagram, device wire.DeviceIndex) {
	d.State = wire.StateQueued
	if device == wire.DeviceMain {
		s.main = append(s.main, d)
	} else {
		s.backup = append(s.backup, d)
	}
}

// QueueExternalDatagram implements Scheduler.
func (s *SimScheduler) QueueExternalDatagram(d *wire.Datagram) {
	d.State = wire.StateQueued
	s.external = append(s.external, d)
}

// OutputStats implements Scheduler.
func (s *SimScheduler) OutputStats(d *wire.Datagram) {
	s.log.Debugw("datagram stats", "name", d.Name, "state", d.State, "wc", d.WorkingCounter)
}

// Dispatch marks every queued datagram as sent then, concurrently for
// main and backup, resolves it via respond. A production transport
// would instead hand these to a raw socket and wait for the reply;
// this loopback is the demo/test substitute.
func (s *SimScheduler) Dispatch(ctx context.Context, respond func(*wire.Datagram)) error {
	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error { return s.dispatchOne(ctx, s.main, respond) })
	wg.Go(func() error { return s.dispatchOne(ctx, s.backup, respond) })
	wg.Go(func() error { return s.dispatchOne(ctx, s.external, respond) })

	err := wg.Wait()
	s.main, s.backup, s.external = nil, nil, nil
	return err
}

func (s *SimScheduler) dispatchOne(ctx context.Context, datagrams []*wire.Datagram, respond func(*wire.Datagram)) error {
	for _, d := range datagrams {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.State = wire.StateSent
		respond(d)
	}
	return nil
}

// SimulateCycleDelay sleeps for the configured cycle interval — a
// placeholder for the real bus's round-trip time in demo runs.
func SimulateCycleDelay(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
