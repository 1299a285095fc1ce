// Package transport holds the ambient, outside-the-core pieces a
// runnable master needs: link monitoring for the redundant NICs,
// reconnect backoff, and the raw-socket/gopacket glue that actually
// puts frames on the wire (spec §1 excludes the scheduler/dispatcher
// itself from the core; this package is where it would live).
package transport

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

// Option configures a LinkMonitor.
type Option func(*options)

// WithLogger attaches a logger to the monitor.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

type options struct {
	log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{log: zap.NewNop().Sugar()}
}

// LinkMonitor tracks carrier state for the master's two redundant NICs
// (§3 Datagram device index), grounded on
// controlplane/modules/route/internal/discovery/link/link.go's
// netlink.LinkSubscribeWithOptions pattern.
type LinkMonitor struct {
	links map[wire.DeviceIndex]string // device -> interface name
	cache *cache[wire.DeviceIndex, netlink.LinkAttrs]
	log   *zap.SugaredLogger
}

// NewLinkMonitor resolves the main and backup interface names and
// bootstraps their initial state synchronously.
func NewLinkMonitor(mainIface, backupIface string, opts ...Option) (*LinkMonitor, error) {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &LinkMonitor{
		links: map[wire.DeviceIndex]string{
			wire.DeviceMain:   mainIface,
			wire.DeviceBackup: backupIface,
		},
		cache: newCache[wire.DeviceIndex, netlink.LinkAttrs](),
		log:   o.log,
	}

	if err := m.update(); err != nil {
		return nil, err
	}
	return m, nil
}

// Run subscribes to netlink link updates until ctx is canceled.
func (m *LinkMonitor) Run(ctx context.Context) error {
	m.log.Debugw("starting link monitor")
	defer m.log.Debugw("stopped link monitor")

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.runSubscription(ctx)
	})
	return wg.Wait()
}

func (m *LinkMonitor) runSubscription(ctx context.Context) error {
	updates := make(chan netlink.LinkUpdate, 1)
	if err := netlink.LinkSubscribeWithOptions(updates, ctx.Done(), netlink.LinkSubscribeOptions{}); err != nil {
		return fmt.Errorf("subscribing to link updates: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-updates:
			if err := m.update(); err != nil {
				m.log.Warnw("failed to process link update", "error", err)
			}
		}
	}
}

func (m *LinkMonitor) update() error {
	table := make(map[wire.DeviceIndex]netlink.LinkAttrs, len(m.links))
	for device, name := range m.links {
		link, err := netlink.LinkByName(name)
		if err != nil {
			return fmt.Errorf("resolving interface %q: %w", name, err)
		}
		table[device] = *link.Attrs()
	}
	m.cache.Swap(table)
	m.log.Debugw("updated link cache")
	return nil
}

// IsUp reports whether device's interface currently carries an
// operationally-up link, the precondition the transport consults before
// dispatching a cycle's frames (§5 Ordering).
func (m *LinkMonitor) IsUp(device wire.DeviceIndex) bool {
	attrs, ok := m.cache.Lookup(device)
	if !ok {
		return false
	}
	return attrs.OperState == netlink.OperUp
}

// IfaceIndex returns the kernel interface index backing device, as last
// observed by the monitor's link cache — the raw socket layer's bind
// target.
func (m *LinkMonitor) IfaceIndex(device wire.DeviceIndex) (int, error) {
	attrs, ok := m.cache.Lookup(device)
	if !ok {
		return 0, fmt.Errorf("no cached link attrs for device %s", device)
	}
	return attrs.Index, nil
}
