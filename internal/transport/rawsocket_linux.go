//go:build linux

package transport

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

// RawSocket is a raw AF_PACKET socket bound to one physical interface,
// the actual mechanism a real master would use to put EtherCAT frames
// on the wire (spec §1 excludes the scheduler/dispatcher from the core;
// this is where it would plug in). Grounded on
// modules/balancer/bench/go/bench.go's use of golang.org/x/sys/unix for
// low-level syscalls, generalized here from thread affinity to socket
// setup.
type RawSocket struct {
	fd  int
	ifi int
}

// OpenRawSocket opens an AF_PACKET SOCK_RAW socket and binds it to the
// interface with index ifaceIndex and to the EtherCAT EtherType, so the
// socket receives only EtherCAT frames from that interface.
func OpenRawSocket(ifaceIndex int) (*RawSocket, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("opening raw socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(uint16(wire.EtherTypeEtherCAT)),
		Ifindex:  ifaceIndex,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding raw socket to interface %d: %w", ifaceIndex, err)
	}

	return &RawSocket{fd: fd, ifi: ifaceIndex}, nil
}

// Send writes one serialized frame to the wire.
func (s *RawSocket) Send(frame []byte) error {
	addr := unix.SockaddrLinklayer{Ifindex: s.ifi}
	return unix.Sendto(s.fd, frame, 0, &addr)
}

// Recv reads one frame from the wire into buf, returning the number of
// bytes read.
func (s *RawSocket) Recv(buf []byte) (int, error) {
	return unix.Read(s.fd, buf)
}

// Close releases the underlying file descriptor.
func (s *RawSocket) Close() error {
	return unix.Close(s.fd)
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
