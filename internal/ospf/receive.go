package ospf

import "time"

// HandleOSPF is the receive-handler dispatch of spec.md §4.5: given a
// whole Ethernet frame, it decapsulates it, peeks the common header's type
// field and routes to the matching handler. Frames that are not IPv4 with
// protocol 89 are dropped by the decapsulation step, so the caller may pass
// every frame it reads; ReceiveHello and ReceiveLSU below remain
// available as the two narrower entry points spec.md §6 names directly.
func (e *Engine) HandleOSPF(frame []byte, iface string) error {
	payload, _, err := Decapsulate(frame)
	if err != nil {
		e.drop("decapsulate", err)
		return nil
	}
	hdr, err := DecodeHeader(payload)
	if err != nil {
		e.drop("decode_header", err)
		return nil
	}
	switch hdr.Type {
	case TypeHello:
		return e.ReceiveHello(frame, iface)
	case TypeLSU:
		return e.ReceiveLSU(frame, iface)
	default:
		e.drop("unknown_type", nil)
		return nil
	}
}

// ReceiveHello decodes a Hello packet from a whole Ethernet frame and
// upserts the originating neighbor. Malformed packets are dropped
// silently (spec.md §7a); there is no version, checksum, or self-origin
// check on receipt (spec.md §4.5, §9b).
func (e *Engine) ReceiveHello(frame []byte, iface string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, srcIP, err := Decapsulate(frame)
	if err != nil {
		e.drop("decapsulate", err)
		return nil
	}
	hdr, hello, err := DecodeHello(payload)
	if err != nil {
		e.drop("decode_hello", err)
		return nil
	}
	_ = hello

	now := time.Now()
	_, existed := e.neighbors.Find(hdr.RouterID)
	e.neighbors.UpsertHello(hdr.RouterID, srcIP, iface, now)
	if !existed {
		e.log.Printf("ospf: neighbor %s up on %s", routerIDString(hdr.RouterID), iface)
		if e.metrics != nil {
			e.metrics.NeighborUp.Inc()
		}
	}
	return nil
}

// ReceiveLSU decodes an LSU packet and applies every record (clamped to
// MaxEntries by DecodeLSU, spec.md §4.1/B3) to the LSDB.
func (e *Engine) ReceiveLSU(frame []byte, iface string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, _, err := Decapsulate(frame)
	if err != nil {
		e.drop("decapsulate", err)
		return nil
	}
	_, lsas, err := DecodeLSU(payload)
	if err != nil {
		e.drop("decode_lsu", err)
		return nil
	}

	now := time.Now()
	for _, l := range lsas {
		e.lsdb.Apply(l, now)
	}
	return nil
}

// Close tears down the engine's in-memory state. Run's caller is expected
// to have cancelled the Run context first; Close itself does not stop a
// still-running timer loop (spec.md §5's shutdown-flag recommendation is
// implemented via Run's ctx, not here).
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.neighbors = NewNeighbors()
	e.lsdb = NewLSDB()
}
