package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

func TestSimSchedulerDispatchResolvesQueuedDatagrams(t *testing.T) {
	sim := NewSimScheduler(nil)
	d := wire.NewLogical("d0", wire.CommandLRD, 0, make([]byte, 4))
	sim.QueueDatagram(d, wire.DeviceMain)

	err := sim.Dispatch(context.Background(), func(dg *wire.Datagram) {
		dg.State = wire.StateReceived
		dg.WorkingCounter = 1
	})

	require.NoError(t, err)
	assert.Equal(t, wire.StateReceived, d.State)
	assert.Equal(t, uint16(1), d.WorkingCounter)
}

func TestSimSchedulerDispatchClearsQueues(t *testing.T) {
	sim := NewSimScheduler(nil)
	d := wire.NewLogical("d0", wire.CommandLWR, 0, make([]byte, 4))
	sim.QueueDatagram(d, wire.DeviceBackup)
	sim.QueueExternalDatagram(wire.NewLogical("ext", wire.CommandFPRD, 0, make([]byte, 2)))

	require.NoError(t, sim.Dispatch(context.Background(), func(dg *wire.Datagram) {
		dg.State = wire.StateReceived
	}))

	assert.Empty(t, sim.main)
	assert.Empty(t, sim.backup)
	assert.Empty(t, sim.external)
}
