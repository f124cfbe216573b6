package ospf

import "time"

// Neighbor is one directly connected peer router, learned from Hello
// packets. Entries are never deleted once created: a down neighbor may be
// revived by a later Hello, keeping the interface it was first heard on
// (see Neighbors.UpsertHello).
type Neighbor struct {
	RouterID  uint32
	SourceIP  uint32
	Iface     string
	LastHello time.Time
	Alive     bool
}

// Neighbors is the engine's neighbor table: at most one entry per
// router-id (I1), keyed by router-id rather than the intrusive linked list
// the source used (see spec.md §9).
type Neighbors struct {
	byRouterID map[uint32]*Neighbor
}

// NewNeighbors returns an empty neighbor table.
func NewNeighbors() *Neighbors {
	return &Neighbors{byRouterID: make(map[uint32]*Neighbor)}
}

// Find returns the neighbor entry for routerID, if any.
func (n *Neighbors) Find(routerID uint32) (*Neighbor, bool) {
	nb, ok := n.byRouterID[routerID]
	return nb, ok
}

// UpsertHello records a Hello received from routerID. A previously unknown
// router-id creates a new entry on the interface it was first heard on; an
// existing entry refreshes SourceIP, LastHello and Alive — it does NOT migrate
// to a different interface if the peer reappears elsewhere. This mirrors
// the source's first-seen-interface-wins policy (spec.md §4.2, §9).
func (n *Neighbors) UpsertHello(routerID, sourceIP uint32, iface string, now time.Time) {
	if nb, ok := n.byRouterID[routerID]; ok {
		nb.SourceIP = sourceIP
		nb.LastHello = now
		nb.Alive = true
		return
	}
	n.byRouterID[routerID] = &Neighbor{
		RouterID:  routerID,
		SourceIP:  sourceIP,
		Iface:     iface,
		LastHello: now,
		Alive:     true,
	}
}

// Sweep marks every neighbor whose last Hello is older than deadInterval as
// down, returning the router-ids that transitioned from alive to down this
// sweep. A neighbor whose last Hello is exactly deadInterval old is still
// alive (B4): the test is strict inequality.
func (n *Neighbors) Sweep(now time.Time, deadInterval time.Duration) []uint32 {
	var downed []uint32
	for id, nb := range n.byRouterID {
		if !nb.Alive {
			continue
		}
		if now.Sub(nb.LastHello) > deadInterval {
			nb.Alive = false
			downed = append(downed, id)
		}
	}
	return downed
}

// All returns every neighbor entry, alive or down. Iteration order is
// unspecified: per spec.md §9, tests must not rely on map/list ordering here.
func (n *Neighbors) All() []*Neighbor {
	out := make([]*Neighbor, 0, len(n.byRouterID))
	for _, nb := range n.byRouterID {
		out = append(out, nb)
	}
	return out
}
