// Package scheduler declares the master scheduler/dispatcher interface the
// domain engine and request FSM consume (§6). The scheduler itself — the
// component that actually batches datagrams into frames and puts them on
// the wire — is an external collaborator excluded from this design (§1);
// only the interface and SimScheduler, an in-process stand-in for tests
// and demos, live here.
package scheduler

import "github.com/ecat-io/dataplane-master/internal/wire"

// Scheduler is the master-side dispatcher the core hands datagrams to.
type Scheduler interface {
	// QueueDatagram enqueues a cyclic (domain) datagram for the next
	// frame on a specific physical link.
	QueueDatagram(d *wire.Datagram, device wire.DeviceIndex)

	// QueueExternalDatagram enqueues an aperiodic request datagram; the
	// device is implied by the slave's own device index.
	QueueExternalDatagram(d *wire.Datagram)

	// OutputStats emits a rate-limited per-datagram diagnostic log line.
	OutputStats(d *wire.Datagram)
}
