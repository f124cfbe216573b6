// Package transport sends and receives whole Ethernet frames on named
// network interfaces, standing in for spec.md §1's send-packet external
// service and the router-platform's receive demultiplex. It is adapted
// from the teacher's networkinterface_linux.go/networkinterface_darwin.go
// raw-socket handling, narrowed from a general packet sniffer down to IPv4
// frames: the linux socket receives every IPv4 frame, while the darwin
// capture is further filtered to IP protocol 89 (OSPF).
package transport

import (
	"context"
	"fmt"
	"sync"
)

// Handler processes one received Ethernet frame on the named interface.
type Handler func(frame []byte, iface string)

// Transport owns one raw socket per interface it has been asked to use,
// opened lazily on first Send or Listen.
type Transport struct {
	mu      sync.Mutex
	bufPool *BufferPool
	socks   map[string]*socket
}

// New returns a Transport with no interfaces open yet.
func New() *Transport {
	return &Transport{
		bufPool: NewBufferPool(),
		socks:   make(map[string]*socket),
	}
}

// Open binds a raw socket to iface, if one is not already open.
func (t *Transport) Open(iface string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked(iface)
}

func (t *Transport) openLocked(iface string) error {
	if _, ok := t.socks[iface]; ok {
		return nil
	}
	s, err := openSocket(iface)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", iface, err)
	}
	t.socks[iface] = s
	return nil
}

// Send transmits frame on iface, opening the socket first if needed. It
// implements ospf.Sender.
func (t *Transport) Send(iface string, frame []byte) error {
	t.mu.Lock()
	if err := t.openLocked(iface); err != nil {
		t.mu.Unlock()
		return err
	}
	s := t.socks[iface]
	t.mu.Unlock()

	buf := t.bufPool.Get()
	defer t.bufPool.Put(buf)
	buf.Write(frame)
	return s.send(buf.Bytes())
}

// Listen reads frames from iface until ctx is cancelled, invoking handler
// for each one. It blocks; callers should run it in its own goroutine, one
// per interface, matching spec.md §5's "one or more packet-reading
// threads" whose count is opaque to the engine.
func (t *Transport) Listen(ctx context.Context, iface string, handler Handler) error {
	if err := t.Open(iface); err != nil {
		return err
	}
	t.mu.Lock()
	s := t.socks[iface]
	t.mu.Unlock()
	return s.listen(ctx, iface, handler)
}

// Close releases every open socket.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.socks {
		s.close()
	}
	t.socks = make(map[string]*socket)
}

func htons(i uint16) uint16 { return (i<<8)&0xff00 | i>>8 }
