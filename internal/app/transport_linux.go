//go:build linux

package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/config"
	"github.com/ecat-io/dataplane-master/internal/transport"
	"github.com/ecat-io/dataplane-master/internal/wire"
)

// WithRawTransport swaps the master's default in-process loopback
// scheduler for one that actually exchanges frames over the configured
// main/backup NICs: a LinkMonitor-gated pair of raw AF_PACKET sockets
// (spec §1's excluded scheduler/dispatcher, given a concrete body for
// the runnable daemon). Raw sockets require Linux, hence the build tag;
// ecatctl's read-only diagnostics never need this and stay portable.
func WithRawTransport(cfg *config.Config, log *zap.SugaredLogger) (Option, error) {
	monitor, err := transport.NewLinkMonitor(cfg.MainInterface, cfg.BackupInterface, transport.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("starting link monitor: %w", err)
	}

	mainIdx, err := monitor.IfaceIndex(wire.DeviceMain)
	if err != nil {
		return nil, fmt.Errorf("resolving main interface: %w", err)
	}
	backupIdx, err := monitor.IfaceIndex(wire.DeviceBackup)
	if err != nil {
		return nil, fmt.Errorf("resolving backup interface: %w", err)
	}

	mainSocket, err := transport.OpenRawSocket(mainIdx)
	if err != nil {
		return nil, fmt.Errorf("opening main raw socket: %w", err)
	}
	backupSocket, err := transport.OpenRawSocket(backupIdx)
	if err != nil {
		mainSocket.Close()
		return nil, fmt.Errorf("opening backup raw socket: %w", err)
	}

	dispatcher := transport.NewSocketDispatcher(mainSocket, backupSocket, monitor, log)

	return func(m *Master) {
		m.sched = dispatcher
		m.dispatch = dispatcher.Dispatch
		m.linkMonitor = monitor
	}, nil
}
