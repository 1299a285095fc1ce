package domain

import (
	"github.com/ecat-io/dataplane-master/internal/ecerr"
	"github.com/ecat-io/dataplane-master/internal/wire"
)

// DatagramPair is one logical datagram replicated over the main and
// backup physical links for redundancy (§3). Main's payload is a window
// directly into the domain's process image; Backup gets its own receive
// buffer, since the two links observe the bus independently and the
// redundancy merge in Domain.Process needs to tell them apart.
type DatagramPair struct {
	Main, Backup           wire.Datagram
	SendBuffer             []byte
	ExpectedWorkingCounter uint16

	usedOutput, usedInput uint32
}

// commandFor derives a pair's command and expected working counter from
// the number of distinct output- and input-direction slave configs it
// carries (§4.2 table).
func commandFor(usedOutput, usedInput uint32) (wire.Command, uint16, error) {
	switch {
	case usedOutput == 0 && usedInput > 0:
		return wire.CommandLRD, uint16(usedInput), nil
	case usedOutput > 0 && usedInput == 0:
		return wire.CommandLWR, uint16(usedOutput), nil
	case usedOutput > 0 && usedInput > 0:
		return wire.CommandLRW, uint16(3*usedOutput+usedInput), nil
	default:
		return 0, 0, ecerr.New(ecerr.Configuration, "datagram pair has no contributing FMMUs")
	}
}

// newDatagramPair emits a pair for the logical range [address, address+len(processWindow)).
func newDatagramPair(name string, address uint32, processWindow []byte, usedOutput, usedInput uint32) (*DatagramPair, error) {
	cmd, expected, err := commandFor(usedOutput, usedInput)
	if err != nil {
		return nil, err
	}

	size := len(processWindow)
	p := &DatagramPair{
		SendBuffer:             make([]byte, size),
		ExpectedWorkingCounter: expected,
		usedOutput:             usedOutput,
		usedInput:              usedInput,
	}

	p.Main = *wire.NewLogical(name+"-main", cmd, address, processWindow)
	p.Main.DeviceIndex = wire.DeviceMain

	p.Backup = *wire.NewLogical(name+"-backup", cmd, address, make([]byte, size))
	p.Backup.DeviceIndex = wire.DeviceBackup

	return p, nil
}

// size is the logical window's length in bytes.
func (p *DatagramPair) size() int { return len(p.SendBuffer) }

// address is the pair's shared logical address.
func (p *DatagramPair) address() uint32 { return p.Main.Address }

// contains reports whether the logical range [start, start+n) lies
// entirely inside this pair's window, returning the offset within it.
func (p *DatagramPair) contains(start, n uint32) (int, bool) {
	addr, size := p.address(), uint32(p.size())
	if start < addr || start+n > addr+size {
		return 0, false
	}
	return int(start - addr), true
}

// processWorkingCounter aggregates the two siblings' independently
// observed working counters into the pair's single WC contribution for
// this cycle. The two links race to complete the same logical
// transaction against the same slaves, so a received sibling's count is
// authoritative on its own — summing both would double-count the bus.
// Main is preferred when both returned, since it is the link the
// application reads from once Domain.Process has reconciled the pair.
func (p *DatagramPair) processWorkingCounter() uint16 {
	switch {
	case p.Main.State == wire.StateReceived:
		return p.Main.WorkingCounter
	case p.Backup.State == wire.StateReceived:
		return p.Backup.WorkingCounter
	default:
		return 0
	}
}
