//go:build darwin

package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"
)

// socket wraps a pcap handle opened on one BPF device, filtered to IPv4
// traffic carrying OSPF (protocol 89). Adapted from the teacher's
// networkinterface_darwin.go, which opened an unfiltered live capture for
// its general-purpose sniffer.
type socket struct {
	handle *pcap.Handle
}

// readTimeout bounds ReadPacketData so listen's ctx.Done() check is
// actually reached on a quiet interface, mirroring transport_linux.go's
// SO_RCVTIMEO.
const readTimeout = 1 * time.Second

func openSocket(ifaceName string) (*socket, error) {
	handle, err := pcap.OpenLive(ifaceName, 1500, true, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("pcap open %s: %w", ifaceName, err)
	}
	if err := handle.SetBPFFilter("ip proto 89"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pcap filter on %s: %w", ifaceName, err)
	}
	return &socket{handle: handle}, nil
}

func (s *socket) send(frame []byte) error {
	return s.handle.WritePacketData(frame)
}

func (s *socket) listen(ctx context.Context, iface string, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		data, _, err := s.handle.ReadPacketData()
		if err != nil {
			continue // timeout or transient capture error; retry
		}
		if len(data) <= 14 {
			continue
		}
		frame := make([]byte, len(data))
		copy(frame, data)
		handler(frame, iface)
	}
}

func (s *socket) close() {
	s.handle.Close()
}
