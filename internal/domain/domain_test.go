package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

func TestDomainPureReadSinglePair(t *testing.T) {
	d := New(0)
	sc := &SlaveConfig{Name: "slave-a", StationAddress: 0x1001}
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 8}))

	require.NoError(t, d.Finish(0x1000))

	require.Len(t, d.Pairs(), 1)
	p := d.Pairs()[0]
	assert.Equal(t, wire.CommandLRD, p.Main.Command)
	assert.Equal(t, uint32(0x1000), p.Main.Address)
	assert.Equal(t, uint16(1), d.ExpectedWorkingCounter())

	p.Main.Payload[0], p.Main.Payload[7] = 0x01, 0x08
	for i := 1; i < 7; i++ {
		p.Main.Payload[i] = byte(i + 1)
	}
	p.Main.State = wire.StateReceived
	p.Main.WorkingCounter = 1
	p.Backup.State = wire.StateReceived
	p.Backup.WorkingCounter = 0

	d.Process()

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, d.Data())
	state := d.State()
	assert.Equal(t, uint16(1), state.WorkingCounter)
	assert.Equal(t, WCComplete, state.WCState)
}

func TestDomainPureWriteSinglePair(t *testing.T) {
	d := New(0)
	sc := &SlaveConfig{Name: "slave-a", StationAddress: 0x1001}
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirOutput, DataSize: 4}))

	require.NoError(t, d.Finish(0x1000))

	require.Len(t, d.Pairs(), 1)
	p := d.Pairs()[0]
	assert.Equal(t, wire.CommandLWR, p.Main.Command)
	assert.Equal(t, uint16(1), d.ExpectedWorkingCounter())

	copy(d.Data(), []byte{0xaa, 0xbb, 0xcc, 0xdd})

	sched := &recordingScheduler{}
	d.Queue(sched)

	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, p.SendBuffer)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, p.Main.Payload)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, p.Backup.Payload)
	assert.Len(t, sched.datagrams, 2)
}

func TestDomainMixedPair(t *testing.T) {
	d := New(0)
	sc := &SlaveConfig{Name: "slave-a", StationAddress: 0x1001}
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 2}))
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirOutput, DataSize: 2}))

	require.NoError(t, d.Finish(0))

	require.Len(t, d.Pairs(), 1)
	assert.Equal(t, wire.CommandLRW, d.Pairs()[0].Main.Command)
	assert.Equal(t, uint16(4), d.ExpectedWorkingCounter())
}

func TestDomainSharedSlaveConfigDeduplication(t *testing.T) {
	d := New(0)
	a := &SlaveConfig{Name: "a", StationAddress: 0x1001}
	b := &SlaveConfig{Name: "b", StationAddress: 0x1002}

	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: a, Dir: DirInput, DataSize: 2}))
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: a, Dir: DirInput, DataSize: 2}))
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: b, Dir: DirOutput, DataSize: 2}))
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: b, Dir: DirInput, DataSize: 2}))

	require.NoError(t, d.Finish(0))

	require.Len(t, d.Pairs(), 1)
	assert.Equal(t, wire.CommandLRW, d.Pairs()[0].Main.Command)
	assert.Equal(t, uint16(5), d.ExpectedWorkingCounter())
}

func TestDomainPairSplit(t *testing.T) {
	d := New(0, WithMaxPayload(1500))
	sc := &SlaveConfig{Name: "a", StationAddress: 0x1001}
	for i := 0; i < 20; i++ {
		require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 100}))
	}

	require.NoError(t, d.Finish(0))

	require.Len(t, d.Pairs(), 2)
	assert.Equal(t, 1500, d.Pairs()[0].size())
	assert.Equal(t, 500, d.Pairs()[1].size())
}

func TestDomainFMMUOversizeRejected(t *testing.T) {
	d := New(0, WithMaxPayload(100))
	sc := &SlaveConfig{Name: "a", StationAddress: 0x1001}

	err := d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 200})
	require.Error(t, err)
}

func TestDomainRedundancyMerge(t *testing.T) {
	d := New(0)
	sc := &SlaveConfig{Name: "a", StationAddress: 0x1001}
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 4}))
	require.NoError(t, d.Finish(0))

	p := d.Pairs()[0]

	// Main returns unchanged data, WC == expected: image adopts backup.
	copy(p.SendBuffer, []byte{0, 0, 0, 0})
	copy(p.Main.Payload, []byte{0, 0, 0, 0})
	copy(p.Backup.Payload, []byte{0xaa, 0xbb, 0xcc, 0xdd})
	p.Main.State = wire.StateReceived
	p.Main.WorkingCounter = 1
	p.Backup.State = wire.StateReceived
	p.Backup.WorkingCounter = 0
	d.Process()
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, d.Data())

	// Main changes: main wins regardless of backup.
	copy(p.SendBuffer, d.Data())
	copy(p.Main.Payload, []byte{0x11, 0x11, 0x11, 0x11})
	copy(p.Backup.Payload, []byte{0xaa, 0xbb, 0xcc, 0xdd})
	p.Main.State = wire.StateReceived
	p.Main.WorkingCounter = 0
	p.Backup.State = wire.StateReceived
	p.Backup.WorkingCounter = 0
	d.Process()
	assert.Equal(t, []byte{0x11, 0x11, 0x11, 0x11}, d.Data())

	// Both silent, pair incomplete: image stays as-is.
	copy(p.SendBuffer, d.Data())
	copy(p.Main.Payload, d.Data())
	copy(p.Backup.Payload, d.Data())
	p.Main.State = wire.StateReceived
	p.Main.WorkingCounter = 0
	p.Backup.State = wire.StateReceived
	p.Backup.WorkingCounter = 0
	before := append([]byte(nil), d.Data()...)
	d.Process()
	assert.Equal(t, before, d.Data())
}

// TestDomainStateTransitions walks one domain through a table of cycles,
// diffing the observed State against the expected one structurally
// rather than field-by-field, since a State mismatch is easier to read
// as a single diff than as a pile of separate assertions.
func TestDomainStateTransitions(t *testing.T) {
	d := New(0)
	sc := &SlaveConfig{Name: "a", StationAddress: 0x1001}
	require.NoError(t, d.AddFMMU(&FMMUConfig{Slave: sc, Dir: DirInput, DataSize: 2}))
	require.NoError(t, d.Finish(0))
	p := d.Pairs()[0]

	cycles := []struct {
		name           string
		mainWC         uint16
		backupWC       uint16
		mainState      wire.State
		backupState    wire.State
		wantDomainWC   uint16
		wantDomainWCSt WCState
	}{
		{
			name:           "neither link responds",
			mainState:      wire.StateTimedOut,
			backupState:    wire.StateTimedOut,
			wantDomainWC:   0,
			wantDomainWCSt: WCZero,
		},
		{
			name:           "main responds complete",
			mainWC:         1,
			mainState:      wire.StateReceived,
			backupState:    wire.StateTimedOut,
			wantDomainWC:   1,
			wantDomainWCSt: WCComplete,
		},
	}

	for _, c := range cycles {
		t.Run(c.name, func(t *testing.T) {
			p.Main.WorkingCounter, p.Main.State = c.mainWC, c.mainState
			p.Backup.WorkingCounter, p.Backup.State = c.backupWC, c.backupState

			d.Process()

			got := d.State()
			want := State{WorkingCounter: c.wantDomainWC, WCState: c.wantDomainWCSt}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("domain state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type recordingScheduler struct {
	datagrams []*wire.Datagram
	external  []*wire.Datagram
}

func (r *recordingScheduler) QueueDatagram(d *wire.Datagram, device wire.DeviceIndex) {
	r.datagrams = append(r.datagrams, d)
}

func (r *recordingScheduler) QueueExternalDatagram(d *wire.Datagram) {
	r.external = append(r.external, d)
}

func (r *recordingScheduler) OutputStats(d *wire.Datagram) {}
