package router

import (
	"encoding/binary"
	"math"
	"math/bits"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/gaissmai/bart"
)

// MetricInfinity is the sentinel metric spec.md §3 calls "infinity": an
// invalidated route. It is never a real metric — this profile only ever
// produces 0 (directly connected) or 1 (one hop via a neighbor).
const MetricInfinity = math.MaxUint32

// Route is one IPv4 forwarding entry. It is owned by the surrounding
// router in spec.md's model; the engine only reads, inserts, and updates it
// through Table, never replaces the container itself.
type Route struct {
	Dest      uint32
	Mask      uint32
	Gateway   uint32
	Iface     string
	Metric    uint32
	UpdatedAt time.Time
}

// Table is the IPv4 routing table the SPF/reconcile pass mutates. It is
// backed by github.com/gaissmai/bart's compressed multibit trie, keyed by
// exact (dest, mask) prefix rather than used for longest-prefix lookups —
// spec.md's reconcile passes always match on the advertised prefix exactly,
// never by LPM, so Table exposes Lookup/Upsert on the exact (dest, mask)
// prefix and leaves bart's own LPM lookups unused by this profile.
//
// Table carries its own mutex, standing in for spec.md §3's "routing table
// handle offering lookup, insertion, in-place update, and
// mutation-locking": the engine acquires it only for the reconcile phase,
// inside its own lock, per the fixed global lock order in spec.md §4.7.
type Table struct {
	mu sync.Mutex
	bt bart.Table[*Route]
}

// NewTable returns an empty routing table, ready to use.
func NewTable() *Table {
	return &Table{}
}

// Lock acquires the routing-table mutation lock.
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases the routing-table mutation lock.
func (t *Table) Unlock() { t.mu.Unlock() }

// Lookup returns the route for the exact (dest, mask) pair, if one exists.
// Callers must hold the table lock.
func (t *Table) Lookup(dest, mask uint32) (*Route, bool) {
	return t.bt.Get(prefixFor(dest, mask))
}

// Upsert inserts r, or overwrites the existing entry at the same (dest,
// mask) in place. Callers must hold the table lock.
func (t *Table) Upsert(r *Route) {
	t.bt.Insert(prefixFor(r.Dest, r.Mask), r)
}

// Walk calls fn for every route in the table, stopping early if fn returns
// false. Callers must hold the table lock. Used by the invalidation pass
// (spec.md §4.6 step 3), which must visit every entry regardless of prefix
// relationships, so it uses bart's All4 rather than any LPM-oriented
// iterator.
func (t *Table) Walk(fn func(*Route) bool) {
	for _, r := range t.bt.All4() {
		if !fn(r) {
			return
		}
	}
}

func prefixFor(dest, mask uint32) netip.Prefix {
	ones := bits.OnesCount32(mask)
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, dest)
	addr, _ := netip.AddrFromSlice(b)
	return netip.PrefixFrom(addr, ones)
}
