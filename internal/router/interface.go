// Package router provides the collaborators the OSPF engine treats as
// externally owned: the interface list it reads and the IPv4 routing table
// it reconciles into. Both are narrow stand-ins for spec.md's "surrounding
// router" — grounded in the teacher's address-enumeration code
// (networkinterface_linux.go/networkinterface_darwin.go) but trimmed to
// exactly what the engine's reconcile and origination passes need.
package router

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Interface is a read-only snapshot of one of the host's network
// interfaces, matching the fields spec.md §3 requires: name, hardware
// address, IPv4 address and mask, and operational status.
type Interface struct {
	Name       string
	HardwareAddr net.HardwareAddr
	IP         uint32 // network byte order, as a 32-bit value
	Mask       uint32
	Up         bool
}

// Network returns the interface's advertised subnet: IP & Mask.
func (i Interface) Network() uint32 {
	return i.IP & i.Mask
}

// Lister implements ospf.InterfaceLister against ListInterfaces, optionally
// restricted to a configured allowlist of interface names. A nil or empty
// Only runs OSPF on every interface ListInterfaces returns.
type Lister struct {
	Only []string
}

// List returns the current interface snapshot, filtered to Only when set.
func (l Lister) List() ([]Interface, error) {
	all, err := ListInterfaces()
	if err != nil {
		return nil, err
	}
	if len(l.Only) == 0 {
		return all, nil
	}
	allow := make(map[string]bool, len(l.Only))
	for _, name := range l.Only {
		allow[name] = true
	}
	out := make([]Interface, 0, len(all))
	for _, intf := range all {
		if allow[intf.Name] {
			out = append(out, intf)
		}
	}
	return out, nil
}

func (i Interface) String() string {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, i.IP)
	return fmt.Sprintf("%s: ip=%s up=%v", i.Name, ip, i.Up)
}

// ListInterfaces enumerates the host's interfaces via the standard library,
// keeping only those with a usable IPv4 address. Loopback is excluded: it
// never participates in OSPF adjacency formation. Enumeration order is
// whatever the standard library returns, which is what spec.md §3 uses to
// pick the router-id (the first entry).
func ListInterfaces() ([]Interface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("router: list interfaces: %w", err)
	}

	out := make([]Interface, 0, len(ifs))
	for _, intf := range ifs {
		if intf.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := intf.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			out = append(out, Interface{
				Name:         intf.Name,
				HardwareAddr: intf.HardwareAddr,
				IP:           binary.BigEndian.Uint32(ip4),
				Mask:         binary.BigEndian.Uint32(ipnet.Mask),
				Up:           intf.Flags&net.FlagUp != 0,
			})
			break
		}
	}
	return out, nil
}
