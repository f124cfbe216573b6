package ospf

import (
	"testing"
	"time"
)

func TestLSDBApplySequenceArbitration(t *testing.T) {
	db := NewLSDB()
	now := time.Now()

	if !db.Apply(LSA{RouterID: 1, Subnet: 10, Mask: 0xffffff00, Sequence: 5}, now) {
		t.Fatalf("first apply on unseen identity should report a change")
	}

	// B2: seq less than stored is a no-op.
	if db.Apply(LSA{RouterID: 1, Subnet: 10, Mask: 0xffffff00, Sequence: 4}, now.Add(time.Second)) {
		t.Fatalf("apply with seq < stored must be a no-op")
	}
	// B1: seq equal to stored is a no-op.
	if db.Apply(LSA{RouterID: 1, Subnet: 10, Mask: 0xffffff00, Sequence: 5}, now.Add(time.Second)) {
		t.Fatalf("apply with seq == stored must be a no-op")
	}

	e, ok := db.Find(1, 10)
	if !ok || e.Sequence != 5 {
		t.Fatalf("stored entry = %+v, want sequence 5", e)
	}

	// seq greater than stored updates mask, timestamp and age.
	later := now.Add(2 * time.Second)
	if !db.Apply(LSA{RouterID: 1, Subnet: 10, Mask: 0xfffffe00, Sequence: 6}, later) {
		t.Fatalf("apply with seq > stored should report a change")
	}
	e, _ = db.Find(1, 10)
	if e.Sequence != 6 || e.Mask != 0xfffffe00 || !e.Timestamp.Equal(later) {
		t.Fatalf("stored entry after update = %+v", e)
	}
}

func TestLSDBApplyIdempotent(t *testing.T) {
	db := NewLSDB()
	now := time.Now()
	lsa := LSA{RouterID: 2, Subnet: 20, Mask: 0xffffff00, Sequence: 1}

	db.Apply(lsa, now)
	before, _ := db.Find(2, 20)
	snapshot := *before

	db.Apply(lsa, now.Add(time.Second))
	after, _ := db.Find(2, 20)
	if *after != snapshot {
		t.Fatalf("re-applying the identical LSA mutated the entry: before=%+v after=%+v", snapshot, *after)
	}
}

func TestLSDBAgeExpires(t *testing.T) {
	db := NewLSDB()
	start := time.Now()
	db.Apply(LSA{RouterID: 3, Subnet: 30, Mask: 0xffffff00, Sequence: 1}, start)

	maxAge := 20 * time.Second

	mid := start.Add(10 * time.Second)
	expired := db.Age(mid, maxAge)
	if len(expired) != 0 {
		t.Fatalf("entry expired too early: %v", expired)
	}
	e, ok := db.Find(3, 30)
	if !ok || e.Age != 10 {
		t.Fatalf("age at +10s = %+v, want Age=10", e)
	}

	end := start.Add(20 * time.Second)
	expired = db.Age(end, maxAge)
	if len(expired) != 1 {
		t.Fatalf("expected exactly one expiry at age>=maxAge, got %v", expired)
	}
	if _, ok := db.Find(3, 30); ok {
		t.Fatalf("entry should have been removed after reaching max age")
	}
}

func TestLSDBOrderMostRecentFirst(t *testing.T) {
	db := NewLSDB()
	now := time.Now()
	db.Apply(LSA{RouterID: 1, Subnet: 10, Sequence: 1}, now)
	db.Apply(LSA{RouterID: 2, Subnet: 20, Sequence: 1}, now)
	db.Apply(LSA{RouterID: 3, Subnet: 30, Sequence: 1}, now)

	all := db.All()
	if len(all) != 3 || all[0].RouterID != 3 || all[2].RouterID != 1 {
		t.Fatalf("unexpected order: %+v", all)
	}
}
