package router

import "testing"

func TestTableUpsertAndLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	r := &Route{Dest: 0xc0a80100, Mask: 0xffffff00, Gateway: 0, Iface: "eth0", Metric: 0}
	tbl.Upsert(r)

	got, ok := tbl.Lookup(0xc0a80100, 0xffffff00)
	if !ok || got.Iface != "eth0" {
		t.Fatalf("lookup after upsert = %+v, %v", got, ok)
	}

	// In-place update at the same (dest, mask).
	tbl.Upsert(&Route{Dest: 0xc0a80100, Mask: 0xffffff00, Gateway: 0x0a000002, Iface: "eth1", Metric: 1})
	got, ok = tbl.Lookup(0xc0a80100, 0xffffff00)
	if !ok || got.Metric != 1 || got.Iface != "eth1" {
		t.Fatalf("lookup after in-place update = %+v", got)
	}
}

func TestTableWalk(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	tbl.Upsert(&Route{Dest: 0xc0a80100, Mask: 0xffffff00})
	tbl.Upsert(&Route{Dest: 0xc0a80200, Mask: 0xffffff00})
	tbl.Unlock()

	tbl.Lock()
	defer tbl.Unlock()

	count := 0
	tbl.Walk(func(r *Route) bool {
		count++
		return true
	})
	if count != 2 {
		t.Fatalf("walked %d routes, want 2", count)
	}
}
