package ospf

import "fmt"

// PrintNeighbors writes a human-readable, non-mutating snapshot of the
// neighbor table (spec.md §6's print-neighbors diagnostic).
func (e *Engine) PrintNeighbors() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.neighbors.All()
	out := fmt.Sprintf("neighbors (%d):\n", len(all))
	for _, nb := range all {
		out += fmt.Sprintf("  %s via %s alive=%v last-hello=%s\n",
			routerIDString(nb.RouterID), nb.Iface, nb.Alive, nb.LastHello.Format("15:04:05"))
	}
	return out
}

// PrintLSDB writes a human-readable, non-mutating snapshot of the
// link-state database (spec.md §6's print-lsdb diagnostic).
func (e *Engine) PrintLSDB() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.lsdb.All()
	out := fmt.Sprintf("lsdb (%d entries):\n", len(all))
	for _, entry := range all {
		out += fmt.Sprintf("  origin=%s subnet=%s/%s seq=%d age=%ds\n",
			routerIDString(entry.RouterID), subnetString(entry.Subnet), subnetString(entry.Mask),
			entry.Sequence, entry.Age)
	}
	return out
}
