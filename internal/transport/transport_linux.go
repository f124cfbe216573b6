//go:build linux

package transport

import (
	"context"
	"net"

	"golang.org/x/sys/unix"
)

// socket is a raw AF_PACKET socket bound to one interface, filtered to
// EtherType IPv4 only — this engine never needs to see anything else.
// Adapted from the teacher's networkinterface_linux.go, which bound to
// ETH_P_ALL for its general-purpose sniffer; narrowed here since the
// engine only ever sends and receives OSPF-over-IPv4.
type socket struct {
	fd   int
	addr unix.SockaddrLinklayer
}

func openSocket(ifaceName string) (*socket, error) {
	intf, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_IP)))
	if err != nil {
		return nil, err
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_IP),
		Ifindex:  intf.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// A read timeout lets listen() wake periodically to check ctx.Done,
	// since a blocking Recvfrom has no other cancellation point.
	tv := unix.Timeval{Sec: 1}
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)

	return &socket{fd: fd, addr: addr}, nil
}

func (s *socket) send(frame []byte) error {
	return unix.Sendto(s.fd, frame, 0, &s.addr)
}

func (s *socket) listen(ctx context.Context, iface string, handler Handler) error {
	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, _, err := unix.Recvfrom(s.fd, buf, 0)
		if err != nil {
			continue // timeout or transient error; retry
		}
		if n <= 14 {
			continue // shorter than an Ethernet header
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		handler(frame, iface)
	}
}

func (s *socket) close() {
	unix.Close(s.fd)
}
