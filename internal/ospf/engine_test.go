package ospf

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/clw11/ospfd/internal/router"
)

type fakeLister struct {
	ifaces []router.Interface
}

func (f fakeLister) List() ([]router.Interface, error) { return f.ifaces, nil }

type fakeSender struct{ sent int }

func (f *fakeSender) Send(iface string, frame []byte) error {
	f.sent++
	return nil
}

func mac(b byte) net.HardwareAddr { return net.HardwareAddr{0x02, 0, 0, 0, 0, b} }

func newTestEngine(t *testing.T, ifaces []router.Interface) (*Engine, *fakeSender, *router.Table) {
	t.Helper()
	sender := &fakeSender{}
	rt := router.NewTable()
	e, err := New(fakeLister{ifaces}, sender, rt, nil, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, sender, rt
}

func eth0Up() router.Interface {
	return router.Interface{Name: "eth0", HardwareAddr: mac(1), IP: 0x0a000001, Mask: 0xffffff00, Up: true}
}

// TestEngineDirectRouteInstalled covers reconcile pass 1: an up interface
// always yields a metric-0 route for its own subnet.
func TestEngineDirectRouteInstalled(t *testing.T) {
	e, _, rt := newTestEngine(t, []router.Interface{eth0Up()})

	e.tick(time.Now())

	rt.Lock()
	r, ok := rt.Lookup(0x0a000000, 0xffffff00)
	rt.Unlock()
	if !ok || r.Metric != 0 || r.Iface != "eth0" {
		t.Fatalf("direct route = %+v, ok=%v", r, ok)
	}
}

// TestEngineTwoRouterConvergence covers end-to-end scenario 1 in spec.md
// §8: a Hello followed by an LSU from a peer yields an alive neighbor and
// a metric-1 route via that neighbor's source IP on the interface it was
// heard on.
func TestEngineTwoRouterConvergence(t *testing.T) {
	e, _, rt := newTestEngine(t, []router.Interface{eth0Up()})

	peerRouterID := uint32(0x0a000002)
	peerIP := uint32(0x0a000002)
	peerMAC := mac(2)

	helloPkt := EncodeHello(peerRouterID, Hello{NetworkMask: 0xffffff00, HelloInterval: 5, DeadInterval: 20})
	frame := Encapsulate(peerMAC, peerIP, helloPkt)
	if err := e.ReceiveHello(frame, "eth0"); err != nil {
		t.Fatalf("ReceiveHello: %v", err)
	}

	nb, ok := e.neighbors.Find(peerRouterID)
	if !ok || !nb.Alive || nb.Iface != "eth0" || nb.SourceIP != peerIP {
		t.Fatalf("neighbor after hello = %+v, ok=%v", nb, ok)
	}

	peerSubnet := uint32(0xc0a80100)
	lsuPkt := EncodeLSU(peerRouterID, []LSA{{RouterID: peerRouterID, Subnet: peerSubnet, Mask: 0xffffff00, Sequence: 1}})
	lsuFrame := Encapsulate(peerMAC, peerIP, lsuPkt)
	if err := e.ReceiveLSU(lsuFrame, "eth0"); err != nil {
		t.Fatalf("ReceiveLSU: %v", err)
	}

	e.tick(time.Now())

	rt.Lock()
	r, ok := rt.Lookup(peerSubnet, 0xffffff00)
	rt.Unlock()
	if !ok || r.Metric != 1 || r.Gateway != peerIP || r.Iface != "eth0" {
		t.Fatalf("learned route = %+v, ok=%v", r, ok)
	}
}

// TestEngineNeighborDeathInvalidatesRoutes covers scenario 2: once a
// neighbor stops sending Hellos past the dead interval, its learned routes
// are marked infinity on the next reconcile, while direct routes are
// untouched.
func TestEngineNeighborDeathInvalidatesRoutes(t *testing.T) {
	e, _, rt := newTestEngine(t, []router.Interface{eth0Up()})

	start := time.Now()
	peerRouterID, peerIP, peerMAC := uint32(0x0a000002), uint32(0x0a000002), mac(2)

	helloPkt := EncodeHello(peerRouterID, Hello{NetworkMask: 0xffffff00})
	e.ReceiveHello(Encapsulate(peerMAC, peerIP, helloPkt), "eth0")

	peerSubnet := uint32(0xc0a80100)
	lsuPkt := EncodeLSU(peerRouterID, []LSA{{RouterID: peerRouterID, Subnet: peerSubnet, Mask: 0xffffff00, Sequence: 1}})
	e.ReceiveLSU(Encapsulate(peerMAC, peerIP, lsuPkt), "eth0")

	e.tick(start)

	rt.Lock()
	direct, _ := rt.Lookup(0x0a000000, 0xffffff00)
	rt.Unlock()
	if direct.Metric != 0 {
		t.Fatalf("direct route metric = %d before death, want 0", direct.Metric)
	}

	// Tick far enough past the neighbor's LastHello for this tick's sweep to
	// mark it down (dead interval is 20s in DefaultConfig).
	afterDeath := start.Add(e.cfg.DeadInterval + time.Second)
	e.tick(afterDeath)

	rt.Lock()
	learned, ok := rt.Lookup(peerSubnet, 0xffffff00)
	direct, _ = rt.Lookup(0x0a000000, 0xffffff00)
	rt.Unlock()

	if !ok || learned.Metric != router.MetricInfinity {
		t.Fatalf("learned route after neighbor death = %+v, want metric=infinity", learned)
	}
	if direct.Metric != 0 {
		t.Fatalf("direct route metric = %d after neighbor death, want unchanged 0", direct.Metric)
	}
}

// TestEngineLSAExpiry covers scenario 3: an LSA from a non-neighbor
// originator ages out after LSAMaxAge and is removed from the LSDB.
func TestEngineLSAExpiry(t *testing.T) {
	e, _, _ := newTestEngine(t, []router.Interface{eth0Up()})

	start := time.Now()
	thirdParty := uint32(0x0a000003)
	lsuPkt := EncodeLSU(thirdParty, []LSA{{RouterID: thirdParty, Subnet: 0xc0a80300, Mask: 0xffffff00, Sequence: 1}})
	e.ReceiveLSU(Encapsulate(mac(3), 0x0a000003, lsuPkt), "eth0")

	if _, ok := e.lsdb.Find(thirdParty, 0xc0a80300); !ok {
		t.Fatalf("precondition: LSA should be present")
	}

	e.tick(start.Add(e.cfg.LSAMaxAge + time.Second))

	if _, ok := e.lsdb.Find(thirdParty, 0xc0a80300); ok {
		t.Fatalf("LSA should have expired and been removed")
	}
}

// TestEngineReOriginationSequenceIncreases covers scenario 5: across
// repeated ticks, the engine's own LSA for an interface keeps a strictly
// increasing sequence number and age=0 right after each tick.
func TestEngineReOriginationSequenceIncreases(t *testing.T) {
	e, _, _ := newTestEngine(t, []router.Interface{eth0Up()})

	var lastSeq uint32
	now := time.Now()
	for i := 0; i < 3; i++ {
		now = now.Add(e.cfg.HelloInterval)
		e.tick(now)

		entry, ok := e.lsdb.Find(e.routerID, 0x0a000000)
		if !ok {
			t.Fatalf("own LSA missing after tick %d", i)
		}
		if entry.Age != 0 {
			t.Fatalf("own LSA age = %d right after a tick, want 0", entry.Age)
		}
		if i > 0 && entry.Sequence <= lastSeq {
			t.Fatalf("sequence did not increase: tick %d seq=%d, previous=%d", i, entry.Sequence, lastSeq)
		}
		lastSeq = entry.Sequence
	}
}

// TestEngineLSUCapAppliesOnlyFirstMaxEntries covers scenario 6: an LSU
// claiming more LSAs than MaxEntries only has the first MaxEntries applied.
func TestEngineLSUCapAppliesOnlyFirstMaxEntries(t *testing.T) {
	e, _, _ := newTestEngine(t, []router.Interface{eth0Up()})

	peerRouterID := uint32(0x0a000002)
	lsas := make([]LSA, MaxEntries)
	for i := range lsas {
		lsas[i] = LSA{RouterID: peerRouterID, Subnet: uint32(0xc0a80000 + i*256), Mask: 0xffffff00, Sequence: 1}
	}
	pkt := EncodeLSU(peerRouterID, lsas)

	// Declare 30 records and append the 5 past MaxEntries to the packet;
	// none of those may reach the LSDB.
	binary.BigEndian.PutUint32(pkt[HeaderLen:HeaderLen+4], 30)
	extra := make([]LSA, 30-MaxEntries)
	for i := range extra {
		extra[i] = LSA{RouterID: peerRouterID, Subnet: uint32(0xc0a80000 + (MaxEntries+i)*256), Mask: 0xffffff00, Sequence: 1}
		rec := make([]byte, LSALen)
		putLSA(rec, extra[i])
		pkt = append(pkt, rec...)
	}

	if err := e.ReceiveLSU(Encapsulate(mac(2), 0x0a000002, pkt), "eth0"); err != nil {
		t.Fatalf("ReceiveLSU: %v", err)
	}

	count := 0
	for _, l := range lsas {
		if _, ok := e.lsdb.Find(l.RouterID, l.Subnet); ok {
			count++
		}
	}
	if count != MaxEntries {
		t.Fatalf("applied %d LSAs, want %d", count, MaxEntries)
	}
	for _, l := range extra {
		if _, ok := e.lsdb.Find(l.RouterID, l.Subnet); ok {
			t.Fatalf("LSA past MaxEntries (subnet %s) was applied", subnetString(l.Subnet))
		}
	}
}

func TestEngineMalformedPacketDropsSilently(t *testing.T) {
	e, _, _ := newTestEngine(t, []router.Interface{eth0Up()})
	if err := e.ReceiveHello([]byte{0x01, 0x02}, "eth0"); err != nil {
		t.Fatalf("ReceiveHello on garbage should not return an error, got %v", err)
	}
	if len(e.neighbors.All()) != 0 {
		t.Fatalf("malformed hello should not create a neighbor")
	}
}
