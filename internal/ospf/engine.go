package ospf

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/clw11/ospfd/internal/router"
)

// Config tunes the timer engine. The zero value is not ready to use; call
// DefaultConfig for spec.md's constants (§6: OSPF_HELLO_INTERVAL=5,
// OSPF_DEAD_INTERVAL=20, OSPF_LSA_MAXAGE=20).
type Config struct {
	HelloInterval time.Duration
	DeadInterval  time.Duration
	LSAMaxAge     time.Duration
	// Verbose enables per-packet drop logging; off by default since a busy
	// network would otherwise flood the log with silently-dropped noise.
	Verbose bool
}

// DefaultConfig returns spec.md §6's constants as a Config.
func DefaultConfig() Config {
	return Config{
		HelloInterval: 5 * time.Second,
		DeadInterval:  20 * time.Second,
		LSAMaxAge:     20 * time.Second,
	}
}

// InterfaceLister supplies the read-only interface-list snapshot spec.md
// §6 requires the surrounding router to expose.
type InterfaceLister interface {
	List() ([]router.Interface, error)
}

// Sender is the single external service the engine calls to transmit a
// fully formed Ethernet frame on a named interface (spec.md §1's
// send-packet). Failures are logged and otherwise ignored, per spec.md §7.
type Sender interface {
	Send(iface string, frame []byte) error
}

// Engine is the routing control plane: neighbor table, LSDB, and the timer
// loop and receive handlers that drive them. It is an explicit handle
// rather than the source's process-wide singleton (spec.md §9's REDESIGN
// FLAGS), created by New and threaded through the CLI and transport layer.
type Engine struct {
	// mu is the single engine-wide mutex of spec.md §4.7: every public
	// entry point (tick, the two receive handlers, the print diagnostics)
	// acquires it for its full duration.
	mu sync.Mutex

	routerID uint32
	seq      uint32

	neighbors *Neighbors
	lsdb      *LSDB

	ifaces InterfaceLister
	sender Sender
	routes *router.Table

	cfg     Config
	metrics *Metrics
	log     *log.Logger
}

// New creates an engine, setting the router-id to the IPv4 address of the
// first interface List returns (spec.md §3) and seeding the sequence
// counter to 1 (spec.md §6's init contract).
func New(ifaces InterfaceLister, sender Sender, routes *router.Table, metrics *Metrics, logger *log.Logger, cfg Config) (*Engine, error) {
	snap, err := ifaces.List()
	if err != nil {
		return nil, fmt.Errorf("ospf: init: %w", err)
	}
	if len(snap) == 0 {
		return nil, errors.New("ospf: init: no interface available to derive a router-id from")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		routerID:  snap[0].IP,
		seq:       1,
		neighbors: NewNeighbors(),
		lsdb:      NewLSDB(),
		ifaces:    ifaces,
		sender:    sender,
		routes:    routes,
		cfg:       cfg,
		metrics:   metrics,
		log:       logger,
	}, nil
}

// RouterID returns the engine's own 32-bit router-id.
func (e *Engine) RouterID() uint32 { return e.routerID }

// Run drives the timer loop: one tick every cfg.HelloInterval, until ctx is
// cancelled. Unlike the source (spec.md §5, §9e), shutdown IS coordinated
// here, via ctx, rather than left undefined between sleeps.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.HelloInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

// tick performs one full cycle under the engine lock, in the exact order
// spec.md §4.4 mandates: emit Hellos, sweep neighbor liveness, age the
// LSDB, originate local LSAs, flood, run SPF, reconcile the routing table.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ifaces, err := e.ifaces.List()
	if err != nil {
		e.log.Printf("ospf: tick: listing interfaces: %v", err)
		return
	}

	e.emitHellos(ifaces)
	e.sweepNeighbors(now)
	e.ageLSDB(now)
	e.originateLocalLSAs(ifaces, now)
	e.flood(ifaces)
	learned := e.spf()
	e.reconcile(ifaces, learned, now)

	if e.metrics != nil {
		e.metrics.Ticks.Inc()
		e.metrics.LSDBSize.Set(float64(len(e.lsdb.All())))
	}
}

func (e *Engine) emitHellos(ifaces []router.Interface) {
	for _, iface := range ifaces {
		if !iface.Up {
			continue
		}
		hello := Hello{
			NetworkMask:   iface.Mask,
			HelloInterval: uint16(e.cfg.HelloInterval / time.Second),
			DeadInterval:  uint32(e.cfg.DeadInterval / time.Second),
		}
		pkt := EncodeHello(e.routerID, hello)
		frame := Encapsulate(iface.HardwareAddr, iface.IP, pkt)
		if err := e.sender.Send(iface.Name, frame); err != nil {
			e.log.Printf("ospf: send hello on %s: %v", iface.Name, err)
		}
	}
}

func (e *Engine) sweepNeighbors(now time.Time) {
	for _, id := range e.neighbors.Sweep(now, e.cfg.DeadInterval) {
		e.log.Printf("ospf: neighbor %s down", routerIDString(id))
		if e.metrics != nil {
			e.metrics.NeighborDown.Inc()
		}
	}
}

func (e *Engine) ageLSDB(now time.Time) {
	for _, key := range e.lsdb.Age(now, e.cfg.LSAMaxAge) {
		e.log.Printf("ospf: lsdb entry (%s, %s) expired", routerIDString(key.RouterID), subnetString(key.Subnet))
	}
}

// originateLocalLSAs re-originates an LSA for every up interface this tick,
// always with a fresh, strictly increasing sequence number, so the
// engine's own LSAs always win sequence arbitration against any stale copy
// still circulating (spec.md §4.3).
func (e *Engine) originateLocalLSAs(ifaces []router.Interface, now time.Time) {
	for _, iface := range ifaces {
		if !iface.Up {
			continue
		}
		lsa := LSA{
			RouterID: e.routerID,
			Subnet:   iface.Network(),
			Mask:     iface.Mask,
			Sequence: e.nextSeq(),
		}
		e.lsdb.Apply(lsa, now)
	}
}

// nextSeq returns the next sequence number, post-incrementing the
// per-instance counter (spec.md §4.3). 32-bit overflow is an accepted,
// unhandled limitation (spec.md §9c).
func (e *Engine) nextSeq() uint32 {
	v := e.seq
	e.seq++
	return v
}

// flood sends the entire LSDB to every up interface, split into LSU
// packets of at most MaxEntries records each so a database larger than one
// LSU can hold is never silently truncated (OSPF_MAX_LSA is unenforced
// per spec.md §9d, so this chunking is the only thing standing between a
// large database and a dropped tail).
func (e *Engine) flood(ifaces []router.Interface) {
	entries := e.lsdb.All()
	if len(entries) == 0 {
		return
	}
	for start := 0; start < len(entries); start += MaxEntries {
		end := start + MaxEntries
		if end > len(entries) {
			end = len(entries)
		}
		chunk := make([]LSA, end-start)
		for i, e2 := range entries[start:end] {
			chunk[i] = LSA{RouterID: e2.RouterID, Subnet: e2.Subnet, Mask: e2.Mask, Sequence: e2.Sequence, Age: e2.Age}
		}
		pkt := EncodeLSU(e.routerID, chunk)
		for _, iface := range ifaces {
			if !iface.Up {
				continue
			}
			frame := Encapsulate(iface.HardwareAddr, iface.IP, pkt)
			if err := e.sender.Send(iface.Name, frame); err != nil {
				e.log.Printf("ospf: flood on %s: %v", iface.Name, err)
			}
		}
	}
}

// candidateRoute is a one-hop learned route derived from the LSDB, before
// reconciliation against the routing table.
type candidateRoute struct {
	Dest, Mask, Gateway uint32
	Iface               string
}

// spf computes spec.md §4.6's degenerate SPF: every LSDB entry not
// originated by this router is reachable in exactly one hop, via whichever
// alive neighbor matches the entry's originator. There is no multi-hop
// computation. LSDB traversal is most-recent-first (LSDB.All), which is
// also the tie-break order the caller relies on for duplicate (dest, mask)
// pairs.
func (e *Engine) spf() []candidateRoute {
	var out []candidateRoute
	for _, entry := range e.lsdb.All() {
		if entry.RouterID == e.routerID {
			continue
		}
		nb, ok := e.neighbors.Find(entry.RouterID)
		if !ok || !nb.Alive {
			continue
		}
		out = append(out, candidateRoute{
			Dest:    entry.Subnet,
			Mask:    entry.Mask,
			Gateway: nb.SourceIP,
			Iface:   nb.Iface,
		})
	}
	return out
}

type routeKey struct{ Dest, Mask uint32 }

// reconcile runs spec.md §4.6's three passes under the routing-table lock,
// acquired inside the engine lock per the fixed global order of spec.md
// §4.7.
func (e *Engine) reconcile(ifaces []router.Interface, learned []candidateRoute, now time.Time) {
	e.routes.Lock()
	defer e.routes.Unlock()

	// Pass 1: directly connected routes. Pass 2 runs after this one, so its
	// "metric 0 is replaceable" quirk (spec.md §9a) sees every direct route
	// at metric 0: a learned candidate for the same prefix replaces it with
	// a metric-1 route, and the next tick's pass 1 sets it back to metric 0.
	for _, iface := range ifaces {
		if !iface.Up {
			continue
		}
		dest, mask := iface.Network(), iface.Mask
		if existing, ok := e.routes.Lookup(dest, mask); ok {
			existing.Metric = 0
			existing.Gateway = 0
			existing.Iface = iface.Name
			existing.UpdatedAt = now
		} else {
			e.routes.Upsert(&router.Route{Dest: dest, Mask: mask, Iface: iface.Name, Metric: 0, UpdatedAt: now})
			e.log.Printf("ospf: route added %s/%s via %s (direct)", subnetString(dest), subnetString(mask), iface.Name)
		}
	}

	// Pass 2: learned routes. Only the first candidate visited for a given
	// (dest, mask) wins (spec.md §4.6's tie-break); later duplicates from
	// other neighbors advertising the same subnet are skipped outright.
	seen := make(map[routeKey]bool, len(learned))
	for _, c := range learned {
		key := routeKey{c.Dest, c.Mask}
		if seen[key] {
			continue
		}
		seen[key] = true

		if existing, ok := e.routes.Lookup(c.Dest, c.Mask); ok {
			// Preserved quirk (spec.md §9a): metric 0 counts as replaceable.
			if existing.Metric == 0 || 1 < existing.Metric {
				existing.Metric = 1
				existing.Gateway = c.Gateway
				existing.Iface = c.Iface
				existing.UpdatedAt = now
			}
			continue
		}
		e.routes.Upsert(&router.Route{Dest: c.Dest, Mask: c.Mask, Gateway: c.Gateway, Iface: c.Iface, Metric: 1, UpdatedAt: now})
		e.log.Printf("ospf: route added %s/%s via %s (learned, gateway %s)", subnetString(c.Dest), subnetString(c.Mask), c.Iface, routerIDString(c.Gateway))
	}

	// Pass 3: invalidation. A learned route whose gateway is no longer an
	// alive neighbor is marked, never removed.
	e.routes.Walk(func(r *router.Route) bool {
		if r.Metric == 0 || r.Metric == router.MetricInfinity {
			return true
		}
		for _, nb := range e.neighbors.All() {
			if nb.Alive && nb.SourceIP == r.Gateway {
				return true
			}
		}
		r.Metric = router.MetricInfinity
		e.log.Printf("ospf: route invalidated %s/%s via %s (gateway %s no longer alive)",
			subnetString(r.Dest), subnetString(r.Mask), r.Iface, routerIDString(r.Gateway))
		if e.metrics != nil {
			e.metrics.RoutesInvalidated.Inc()
		}
		return true
	})
}

// drop records a dropped inbound packet: spec.md §7 calls for silently
// dropping malformed packets and unknown types, with no error surfaced
// above the engine.
func (e *Engine) drop(reason string, err error) {
	if e.metrics != nil {
		e.metrics.DroppedPackets.WithLabelValues(reason).Inc()
	}
	if e.cfg.Verbose {
		e.log.Printf("ospf: dropped packet (%s): %v", reason, err)
	}
}

func routerIDString(id uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

func subnetString(subnet uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(subnet>>24), byte(subnet>>16), byte(subnet>>8), byte(subnet))
}
