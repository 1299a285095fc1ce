package domain

import (
	"github.com/hashicorp/go-multierror"

	"github.com/ecat-io/dataplane-master/internal/ecerr"
)

// SlaveLocator identifies a slave by its bus position, the same four-way
// key the boot-time scan (an external collaborator, §1) uses to hand out
// SlaveConfig handles.
type SlaveLocator struct {
	Alias       uint16
	Position    uint16
	VendorID    uint32
	ProductCode uint32
}

// SlaveConfigFinder resolves a SlaveLocator to the slave config the
// application registered during bus scanning. It is the boot-time
// discovery collaborator's interface as seen by the domain (§1, §6).
type SlaveConfigFinder interface {
	FindSlaveConfig(loc SlaveLocator) (*SlaveConfig, error)
}

// PDOEntryReg is one entry of a bulk PDO-entry registration (§6
// `register_pdo_entry_list`). ByteSize is the entry's mapped width — in
// the original this is resolved from the slave's SII/PDO dictionary by
// ecrt_slave_config_reg_pdo_entry; that dictionary lookup lives with the
// boot-time scan and is out of scope here (§1), so the caller supplies
// the already-resolved size directly.
type PDOEntryReg struct {
	Locator  SlaveLocator
	Index    uint16
	SubIndex uint8
	Dir      Direction
	ByteSize uint32

	// Offset receives the FMMU's assigned logical-start offset within
	// the domain on success, mirroring *reg->offset in the original.
	Offset *uint32
}

// RegisterPDOEntryList resolves each entry's slave config, builds one
// FMMU config per entry, links it into the
// domain, and writes the resulting offset back through reg.Offset
// (§6). Unlike the original, which returns on the first failing entry,
// every entry is attempted and all `Configuration` failures are
// aggregated via go-multierror — a batch API should tell the caller
// about every bad locator in the batch, not just the first.
func (d *Domain) RegisterPDOEntryList(finder SlaveConfigFinder, regs []PDOEntryReg) error {
	var merr *multierror.Error

	for i := range regs {
		reg := &regs[i]

		sc, err := finder.FindSlaveConfig(reg.Locator)
		if err != nil {
			merr = multierror.Append(merr, ecerr.Wrap(ecerr.Configuration, err,
				"resolving slave config for pdo entry registration"))
			continue
		}

		fmmu := &FMMUConfig{
			Slave:    sc,
			Dir:      reg.Dir,
			DataSize: reg.ByteSize,
		}
		if err := d.AddFMMU(fmmu); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		if reg.Offset != nil {
			*reg.Offset = fmmu.LogicalStart
		}
	}

	return merr.ErrorOrNil()
}
