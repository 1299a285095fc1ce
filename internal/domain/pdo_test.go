package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecat-io/dataplane-master/internal/ecerr"
)

type stubFinder struct {
	configs map[SlaveLocator]*SlaveConfig
}

func (f *stubFinder) FindSlaveConfig(loc SlaveLocator) (*SlaveConfig, error) {
	sc, ok := f.configs[loc]
	if !ok {
		return nil, ecerr.Newf(ecerr.Configuration, "no slave at %+v", loc)
	}
	return sc, nil
}

func TestRegisterPDOEntryListAssignsOffsets(t *testing.T) {
	d := New(0)
	locA := SlaveLocator{Position: 0, VendorID: 1, ProductCode: 1}
	finder := &stubFinder{configs: map[SlaveLocator]*SlaveConfig{
		locA: {Name: "a", StationAddress: 0x1001},
	}}

	var off1, off2 uint32
	regs := []PDOEntryReg{
		{Locator: locA, Index: 0x6000, Dir: DirInput, ByteSize: 2, Offset: &off1},
		{Locator: locA, Index: 0x7000, Dir: DirOutput, ByteSize: 2, Offset: &off2},
	}

	require.NoError(t, d.RegisterPDOEntryList(finder, regs))
	require.NoError(t, d.Finish(0x2000))

	assert.Equal(t, uint32(0), off1)
	assert.Equal(t, uint32(2), off2)
}

func TestRegisterPDOEntryListAggregatesFailures(t *testing.T) {
	d := New(0)
	finder := &stubFinder{configs: map[SlaveLocator]*SlaveConfig{}}

	regs := []PDOEntryReg{
		{Locator: SlaveLocator{Position: 0}, Dir: DirInput, ByteSize: 2},
		{Locator: SlaveLocator{Position: 1}, Dir: DirInput, ByteSize: 2},
	}

	err := d.RegisterPDOEntryList(finder, regs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}
