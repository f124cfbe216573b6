package ospf

import "time"

// lsaKey identifies an LSDB entry: originator router-id and advertised
// subnet (spec.md §3: "Identity: the pair (router-id, subnet)").
type lsaKey struct {
	RouterID uint32
	Subnet   uint32
}

// LSDBEntry is one link-state database record.
type LSDBEntry struct {
	RouterID  uint32
	Subnet    uint32
	Mask      uint32
	Sequence  uint32
	Timestamp time.Time
	Age       uint16 // seconds, refreshed by Age()
}

// LSDB is the engine's link-state database: at most one entry per
// (router-id, subnet) (I2), map-keyed rather than the intrusive linked list
// the source used (spec.md §9). order tracks most-recent-first insertion
// for the tie-break described in spec.md §4.6; it is not a correctness
// requirement, only a determinism one.
type LSDB struct {
	entries map[lsaKey]*LSDBEntry
	order   []lsaKey
}

// NewLSDB returns an empty link-state database.
func NewLSDB() *LSDB {
	return &LSDB{entries: make(map[lsaKey]*LSDBEntry)}
}

// Find returns the entry for (routerID, subnet), if any.
func (d *LSDB) Find(routerID, subnet uint32) (*LSDBEntry, bool) {
	e, ok := d.entries[lsaKey{routerID, subnet}]
	return e, ok
}

// Apply incorporates an incoming LSA. An unseen identity is inserted
// unconditionally. An existing entry is only updated when the incoming
// sequence is strictly greater than the stored one (I4, B1, B2); the
// comparison is unsigned per spec.md §4.3 (sequence wraparound is an
// accepted, unhandled limitation, spec.md §9c). Apply reports whether the
// database changed.
func (d *LSDB) Apply(l LSA, now time.Time) bool {
	key := lsaKey{l.RouterID, l.Subnet}
	existing, ok := d.entries[key]
	if !ok {
		d.entries[key] = &LSDBEntry{
			RouterID:  l.RouterID,
			Subnet:    l.Subnet,
			Mask:      l.Mask,
			Sequence:  l.Sequence,
			Timestamp: now,
		}
		d.order = append([]lsaKey{key}, d.order...)
		return true
	}
	if l.Sequence <= existing.Sequence {
		return false
	}
	existing.Mask = l.Mask
	existing.Sequence = l.Sequence
	existing.Timestamp = now
	existing.Age = 0
	return true
}

// Age recomputes every entry's age as now minus its receive timestamp,
// capped at maxAge, and removes (unlinks) entries whose age has reached
// maxAge (I3). It returns the keys that were removed.
func (d *LSDB) Age(now time.Time, maxAge time.Duration) []lsaKey {
	var expired []lsaKey
	for key, e := range d.entries {
		age := now.Sub(e.Timestamp)
		if age < 0 {
			age = 0
		}
		if age >= maxAge {
			expired = append(expired, key)
			delete(d.entries, key)
			continue
		}
		e.Age = uint16(age / time.Second)
	}
	if len(expired) > 0 {
		d.removeFromOrder(expired)
	}
	return expired
}

func (d *LSDB) removeFromOrder(gone []lsaKey) {
	dead := make(map[lsaKey]bool, len(gone))
	for _, k := range gone {
		dead[k] = true
	}
	kept := d.order[:0]
	for _, k := range d.order {
		if !dead[k] {
			kept = append(kept, k)
		}
	}
	d.order = kept
}

// All returns every current entry in most-recent-first insertion order,
// the order spec.md §4.6 uses to break ties between neighbors advertising
// the same (subnet, mask).
func (d *LSDB) All() []*LSDBEntry {
	out := make([]*LSDBEntry, 0, len(d.order))
	for _, k := range d.order {
		if e, ok := d.entries[k]; ok {
			out = append(out, e)
		}
	}
	return out
}
