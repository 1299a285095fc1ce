package domain

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/ecerr"
	"github.com/ecat-io/dataplane-master/internal/scheduler"
	"github.com/ecat-io/dataplane-master/internal/wire"
)

// DataOrigin distinguishes a domain-owned process image from an
// application-supplied one (§3 Lifecycles).
type DataOrigin uint8

const (
	OriginInternal DataOrigin = iota
	OriginExternal
)

// WCState is the coarse interpretation of a domain's working counter
// (§4.4 Observable state).
type WCState uint8

const (
	WCZero WCState = iota
	WCComplete
	WCIncomplete
)

func (s WCState) String() string {
	switch s {
	case WCZero:
		return "zero"
	case WCComplete:
		return "complete"
	case WCIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// State is the observable snapshot returned by Domain.State (§4.4).
type State struct {
	WorkingCounter uint16
	WCState        WCState
}

// Option configures a Domain at construction.
type Option func(*Domain)

// WithMaxPayload overrides the wire's default maximum datagram payload —
// used by the master to apply its configured max payload, and by tests
// exercising the packing algorithm against a specific budget (spec §8
// scenario 5 uses 1500).
func WithMaxPayload(n uint32) Option {
	return func(d *Domain) { d.maxPayload = n }
}

// WithLogger attaches a logger used for the once-per-second aggregated
// working-counter transition log (§4.4, §7).
func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Domain) { d.log = log }
}

// Domain owns a process-image buffer and an ordered list of FMMU configs;
// Finish packs them into datagram pairs, Queue/Process drive the cycle
// (§3, §4).
type Domain struct {
	Index int

	fmmus      []*FMMUConfig
	DataSize   uint32
	data       []byte
	origin     DataOrigin
	maxPayload uint32

	logicalBase            uint32
	pairs                  []*DatagramPair
	workingCounter         uint16
	expectedWorkingCounter uint16
	changeCounter          uint64
	lastNotify             time.Time

	log *zap.SugaredLogger
}

// New constructs an empty domain, ready to receive FMMU registrations.
func New(index int, opts ...Option) *Domain {
	d := &Domain{
		Index:      index,
		maxPayload: wire.MaxPayload,
		log:        zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// AddFMMU links fmmu into the domain's tail-ordered config list (§4.1).
// Calling this after Finish is a programming error and its behavior is
// undefined by spec; callers are expected to register all FMMUs up
// front. The one validation performed here is the §9 \todo the original
// left open: reject an FMMU that could never fit into any single
// datagram, rather than silently producing an invariant-violating pair.
// An accepted FMMU's LogicalStart is set to its offset within the domain
// (the domain's size before it was added).
func (d *Domain) AddFMMU(fmmu *FMMUConfig) error {
	if fmmu.DataSize > d.maxPayload {
		return ecerr.Newf(ecerr.Configuration,
			"fmmu of %d bytes exceeds max datagram payload %d", fmmu.DataSize, d.maxPayload)
	}

	fmmu.LogicalStart = d.DataSize
	fmmu.domain = d
	d.fmmus = append(d.fmmus, fmmu)
	d.DataSize += fmmu.DataSize

	d.log.Debugw("added fmmu", "domain", d.Index, "bytes", fmmu.DataSize, "total", d.DataSize)
	return nil
}

// Size returns the domain's total process-image size (§6).
func (d *Domain) Size() uint32 { return d.DataSize }

// ExternalMemory substitutes the process image with caller-owned memory,
// releasing any internally allocated image first (§6). Spec's single
// master-wide semaphore around this operation (§5, §9) is represented
// here by requiring the caller to serialize calls against the cycle
// themselves — the same contract the process image's shared access
// already carries.
func (d *Domain) ExternalMemory(mem []byte) {
	d.releaseInternalData()
	d.data = mem
	d.origin = OriginExternal
}

func (d *Domain) releaseInternalData() {
	if d.origin == OriginInternal {
		d.data = nil
	}
}

// Data exposes the process image pointer to the application (§6).
func (d *Domain) Data() []byte { return d.data }

// shallCount reports whether fmmu is the first FMMU of its slave
// config/direction within the current pair's FMMUs-so-far (prior),
// mirroring shall_count in the original C source: each slave-config/
// direction pair contributes to the working-counter calculation once per
// pair (§4.2).
func shallCount(prior []*FMMUConfig, fmmu *FMMUConfig) bool {
	for _, p := range prior {
		if p.Slave == fmmu.Slave && p.Dir == fmmu.Dir {
			return false
		}
	}
	return true
}

// Finish assigns the domain its logical base address, allocates the
// process image if needed, and greedy-packs FMMU configs into datagram
// pairs subject to the wire's maximum payload (§4.2).
//
// The FMMU that triggers a cut becomes the first FMMU of the new pair:
// the cut is made before that FMMU's working-counter contribution is
// computed, so both its bytes and its WC contribution land in the new
// pair, and every pair emitted carries at least one contributor.
func (d *Domain) Finish(baseAddress uint32) error {
	d.logicalBase = baseAddress

	if d.DataSize > 0 && d.origin == OriginInternal {
		d.data = make([]byte, d.DataSize)
	}

	var (
		offset      uint32
		currentSize uint32
		usedOutput  uint32
		usedInput   uint32
		firstIdx    int
	)

	emit := func(size uint32) error {
		name := fmt.Sprintf("domain%d-pair%d", d.Index, len(d.pairs))
		window := d.data[offset : offset+size]
		pair, err := newDatagramPair(name, d.logicalBase+offset, window, usedOutput, usedInput)
		if err != nil {
			return err
		}
		d.pairs = append(d.pairs, pair)
		d.expectedWorkingCounter += pair.ExpectedWorkingCounter
		d.log.Debugw("emitted datagram pair",
			"domain", d.Index, "name", name, "bytes", size,
			"expected_wc", pair.ExpectedWorkingCounter)
		return nil
	}

	for i, fmmu := range d.fmmus {
		fmmu.LogicalStart += baseAddress

		if currentSize+fmmu.DataSize > d.maxPayload {
			if err := emit(currentSize); err != nil {
				return err
			}
			offset += currentSize
			currentSize = 0
			usedOutput, usedInput = 0, 0
			firstIdx = i
		}

		if shallCount(d.fmmus[firstIdx:i], fmmu) {
			if fmmu.Dir == DirOutput {
				usedOutput++
			} else {
				usedInput++
			}
		}

		currentSize += fmmu.DataSize
	}

	if currentSize > 0 {
		if err := emit(currentSize); err != nil {
			return err
		}
	}

	d.log.Infow("domain finished",
		"domain", d.Index, "base_address", d.logicalBase,
		"bytes", d.DataSize, "expected_wc", d.expectedWorkingCounter,
		"pairs", len(d.pairs))
	return nil
}

// TearDown releases whatever Finish managed to build before a failure,
// per §4.2's "leaves the domain in a partially-packed state that the
// caller must tear down". Aggregated with go-multierror since a future
// pooled allocator backing the process image or a pair's buffers could
// fail to release more than one resource at once; today's slice-backed
// buffers never actually fail to release, so this always returns nil,
// but the shape is here for when ExternalMemory-style pooling is added.
func (d *Domain) TearDown() error {
	var merr *multierror.Error
	d.pairs = nil
	d.releaseInternalData()
	return merr.ErrorOrNil()
}

// Queue stages every pair's send buffer and hands both siblings to the
// scheduler (§4.3). Nothing is sent here; this is pure staging.
func (d *Domain) Queue(sched scheduler.Scheduler) {
	for _, p := range d.pairs {
		copy(p.SendBuffer, p.Main.Payload)
		copy(p.Backup.Payload, p.Main.Payload)

		sched.QueueDatagram(&p.Main, wire.DeviceMain)
		sched.QueueDatagram(&p.Backup, wire.DeviceBackup)
	}
}

// Process reconciles the two link observations for every pair into one
// consistent process image (§4.4).
func (d *Domain) Process() {
	var sum uint16
	pairWC := make([]uint16, len(d.pairs))
	for i, p := range d.pairs {
		pairWC[i] = p.processWorkingCounter()
		sum += pairWC[i]
	}

	for _, fmmu := range d.fmmus {
		if fmmu.Dir != DirInput {
			continue
		}

		idx, p, off, ok := d.pairFor(fmmu)
		if !ok {
			// Slave config was cleared mid-cycle, or the FMMU otherwise
			// no longer maps to a pair: leave the image untouched.
			continue
		}
		size := int(fmmu.DataSize)

		mainChanged := !p.Main.WindowEqual(p.SendBuffer, off, size)
		if mainChanged {
			// Main is authoritative once it shows fresh data: nothing
			// to do, the application reads main's window directly.
			continue
		}

		backupChanged := !p.Backup.WindowEqual(p.SendBuffer, off, size)
		if backupChanged || pairWC[idx] == p.ExpectedWorkingCounter {
			copy(p.Main.Payload[off:off+size], p.Backup.Payload[off:off+size])
		}
		// Else: both silent and incomplete. Leave main as-is (stale).
	}

	if sum != d.workingCounter {
		d.changeCounter++
		d.workingCounter = sum
	}

	d.maybeLogWorkingCounterChange()
}

// pairFor locates the pair and in-window offset holding fmmu's logical
// range. Spec's Design Notes (§9) license an indexed/ordered-sequence
// lookup here instead of reproducing the original's intrusive,
// stateful walk (which also reads an uninitialized `fmmu` pointer for
// the very first pair — an Open Question this implementation resolves
// by never doing that pre-loop dereference at all).
func (d *Domain) pairFor(fmmu *FMMUConfig) (int, *DatagramPair, int, bool) {
	for i, p := range d.pairs {
		if off, ok := p.contains(fmmu.LogicalStart, fmmu.DataSize); ok {
			return i, p, off, true
		}
	}
	return 0, nil, 0, false
}

func (d *Domain) maybeLogWorkingCounterChange() {
	if d.changeCounter == 0 {
		return
	}
	now := time.Now()
	if !d.lastNotify.IsZero() && now.Sub(d.lastNotify) < time.Second {
		return
	}

	if d.changeCounter == 1 {
		d.log.Infow("working counter changed",
			"domain", d.Index, "wc", d.workingCounter, "expected", d.expectedWorkingCounter)
	} else {
		d.log.Infow("working counter changes",
			"domain", d.Index, "count", d.changeCounter,
			"wc", d.workingCounter, "expected", d.expectedWorkingCounter)
	}
	d.changeCounter = 0
	d.lastNotify = now
}

// State returns the domain's current working counter and its derived
// coarse state (§4.4).
func (d *Domain) State() State {
	s := State{WorkingCounter: d.workingCounter}
	switch {
	case d.workingCounter == 0:
		s.WCState = WCZero
	case d.workingCounter == d.expectedWorkingCounter:
		s.WCState = WCComplete
	default:
		s.WCState = WCIncomplete
	}
	return s
}

// ExpectedWorkingCounter returns the sum over pairs computed at Finish
// (§3 Domain invariant b).
func (d *Domain) ExpectedWorkingCounter() uint16 { return d.expectedWorkingCounter }

// Pairs exposes the emitted datagram pairs, read-only, for diagnostics
// and tests.
func (d *Domain) Pairs() []*DatagramPair { return d.pairs }
