package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFPRDZeroesPayload(t *testing.T) {
	buf := make([]byte, MaxPayload)
	for i := range buf {
		buf[i] = 0xff
	}
	d := NewLogical("reg", CommandLRD, 0, buf)

	d.SetupFPRD(0x1001, 0x6000, 4)

	assert.Equal(t, CommandFPRD, d.Command)
	assert.Equal(t, logicalAddress(0x1001, 0x6000), d.Address)
	assert.Equal(t, []byte{0, 0, 0, 0}, d.Payload)
}

func TestSetupFPWRCopiesData(t *testing.T) {
	buf := make([]byte, MaxPayload)
	d := NewLogical("reg", CommandLRD, 0, buf)

	d.SetupFPWR(0x1001, 0x6000, []byte{0xaa, 0xbb, 0xcc})

	require.Len(t, d.Payload, 3)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, d.Payload)
}

func TestWindowEqual(t *testing.T) {
	d := NewLogical("pdo", CommandLRW, 0, []byte{1, 2, 3, 4})
	ref := []byte{1, 2, 9, 9}

	assert.True(t, d.WindowEqual(ref, 0, 2))
	assert.False(t, d.WindowEqual(ref, 2, 2))
}

func TestStateInFlight(t *testing.T) {
	assert.True(t, StateQueued.InFlight())
	assert.True(t, StateSent.InFlight())
	assert.False(t, StateReceived.InFlight())
	assert.False(t, StateTimedOut.InFlight())
	assert.False(t, StateError.InFlight())
}
