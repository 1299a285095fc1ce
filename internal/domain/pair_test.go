package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

func TestCommandForTable(t *testing.T) {
	cases := []struct {
		name           string
		usedOutput     uint32
		usedInput      uint32
		wantCmd        wire.Command
		wantExpectedWC uint16
	}{
		{"pure read", 0, 1, wire.CommandLRD, 1},
		{"pure write", 1, 0, wire.CommandLWR, 1},
		{"mixed", 1, 1, wire.CommandLRW, 4},
		{"dedup shared", 1, 2, wire.CommandLRW, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, wc, err := commandFor(tc.usedOutput, tc.usedInput)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCmd, cmd)
			assert.Equal(t, tc.wantExpectedWC, wc)
		})
	}
}

func TestCommandForNoContributors(t *testing.T) {
	_, _, err := commandFor(0, 0)
	assert.Error(t, err)
}

func TestNewDatagramPairSiblingsMatch(t *testing.T) {
	window := make([]byte, 8)
	p, err := newDatagramPair("d0-p0", 0x1000, window, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, p.Main.Command, p.Backup.Command)
	assert.Equal(t, p.Main.Address, p.Backup.Address)
	assert.Equal(t, len(p.Main.Payload), len(p.Backup.Payload))
	assert.Equal(t, uint16(1), p.ExpectedWorkingCounter)
}

func TestDatagramPairContains(t *testing.T) {
	window := make([]byte, 8)
	p, err := newDatagramPair("d0-p0", 0x1000, window, 0, 1)
	require.NoError(t, err)

	off, ok := p.contains(0x1002, 4)
	require.True(t, ok)
	assert.Equal(t, 2, off)

	_, ok = p.contains(0x1006, 4)
	assert.False(t, ok)

	_, ok = p.contains(0x0ffe, 2)
	assert.False(t, ok)
}

func TestProcessWorkingCounterPrefersMain(t *testing.T) {
	window := make([]byte, 4)
	p, err := newDatagramPair("d0-p0", 0x1000, window, 0, 1)
	require.NoError(t, err)

	p.Main.State = wire.StateReceived
	p.Main.WorkingCounter = 1
	p.Backup.State = wire.StateReceived
	p.Backup.WorkingCounter = 2
	assert.Equal(t, uint16(1), p.processWorkingCounter())

	p.Main.State = wire.StateTimedOut
	assert.Equal(t, uint16(2), p.processWorkingCounter())

	p.Backup.State = wire.StateTimedOut
	assert.Equal(t, uint16(0), p.processWorkingCounter())
}
