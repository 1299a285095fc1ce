//go:build linux

package transport

import (
	"context"
	"fmt"

	"github.com/gopacket/gopacket"
	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

// SocketDispatcher is a scheduler.Scheduler that actually puts frames on
// the wire: it batches each link's queued datagrams into one wire.Frame,
// serializes it via the codec, and exchanges it over that link's raw
// socket, skipping a link LinkMonitor currently reports down (§5
// Ordering). External (aperiodic) datagrams ride along with the main
// link's cyclic batch, since the request FSM's slot is itself addressed
// through the main port.
type SocketDispatcher struct {
	mainSocket, backupSocket *RawSocket
	link                     *LinkMonitor

	main, backup, external []*wire.Datagram
	log                    *zap.SugaredLogger
}

// NewSocketDispatcher builds a dispatcher bound to one raw socket per
// physical link and the monitor gating them.
func NewSocketDispatcher(mainSocket, backupSocket *RawSocket, link *LinkMonitor, log *zap.SugaredLogger) *SocketDispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SocketDispatcher{mainSocket: mainSocket, backupSocket: backupSocket, link: link, log: log}
}

// QueueDatagram implements scheduler.Scheduler.
func (s *SocketDispatcher) QueueDatagram(d *wire.Datagram, device wire.DeviceIndex) {
	d.State = wire.StateQueued
	if device == wire.DeviceMain {
		s.main = append(s.main, d)
	} else {
		s.backup = append(s.backup, d)
	}
}

// QueueExternalDatagram implements scheduler.Scheduler.
func (s *SocketDispatcher) QueueExternalDatagram(d *wire.Datagram) {
	d.State = wire.StateQueued
	s.external = append(s.external, d)
}

// OutputStats implements scheduler.Scheduler.
func (s *SocketDispatcher) OutputStats(d *wire.Datagram) {
	s.log.Debugw("datagram stats", "name", d.Name, "state", d.State, "wc", d.WorkingCounter)
}

// Dispatch exchanges one frame per physical link for this cycle's queued
// datagrams, then clears the queues.
func (s *SocketDispatcher) Dispatch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mainBatch := append(append([]*wire.Datagram{}, s.main...), s.external...)
	if err := s.exchange(s.mainSocket, wire.DeviceMain, mainBatch); err != nil {
		return err
	}
	if err := s.exchange(s.backupSocket, wire.DeviceBackup, s.backup); err != nil {
		return err
	}

	s.main, s.backup, s.external = nil, nil, nil
	return nil
}

// exchange serializes datagrams into one frame, sends it over sock, and
// decodes the reply back into the originating datagrams in order. A down
// link marks every datagram timed out instead of attempting I/O on it.
func (s *SocketDispatcher) exchange(sock *RawSocket, device wire.DeviceIndex, datagrams []*wire.Datagram) error {
	if len(datagrams) == 0 {
		return nil
	}

	if s.link != nil && !s.link.IsUp(device) {
		for _, d := range datagrams {
			d.State = wire.StateTimedOut
		}
		s.log.Warnw("skipping dispatch on down link", "device", device)
		return nil
	}

	frame := &wire.Frame{Segments: make([]wire.Segment, len(datagrams))}
	for i, d := range datagrams {
		frame.Segments[i] = wire.FromDatagram(d, uint8(i))
	}

	buf := gopacket.NewSerializeBuffer()
	if err := frame.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		return fmt.Errorf("serializing %s frame: %w", device, err)
	}

	for _, d := range datagrams {
		d.State = wire.StateSent
	}
	if err := sock.Send(buf.Bytes()); err != nil {
		for _, d := range datagrams {
			d.State = wire.StateError
		}
		return fmt.Errorf("sending %s frame: %w", device, err)
	}

	reply := make([]byte, wire.MaxPayload*2)
	n, err := sock.Recv(reply)
	if err != nil {
		for _, d := range datagrams {
			d.State = wire.StateError
		}
		return fmt.Errorf("receiving %s frame: %w", device, err)
	}

	replyFrame := &wire.Frame{}
	if err := replyFrame.DecodeFromBytes(reply[:n], nil); err != nil {
		for _, d := range datagrams {
			d.State = wire.StateError
		}
		return fmt.Errorf("decoding %s reply frame: %w", device, err)
	}

	for i, d := range datagrams {
		if i >= len(replyFrame.Segments) {
			d.State = wire.StateTimedOut
			continue
		}
		replyFrame.Segments[i].CopyInto(d)
	}
	return nil
}
