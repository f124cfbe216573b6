package ospf

import (
	"encoding/binary"
	"errors"
	"net"
)

// AllSPFRouters is the IPv4 multicast group 224.0.0.5 both Hello and LSU
// are addressed to (spec.md §4.1, §6).
const AllSPFRouters uint32 = 0xe0000005

// ProtocolOSPF is the IPv4 protocol number for OSPF (89).
const ProtocolOSPF = 89

const (
	ethHeaderLen  = 14
	ipv4HeaderLen = 20
	etherTypeIPv4 = 0x0800
)

// broadcastMAC is the Ethernet destination for both Hello and LSU: the
// source router never resolves a multicast MAC, so it broadcasts instead
// (spec.md §4.1).
var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Encapsulate wraps an OSPF packet (as produced by EncodeHello/EncodeLSU)
// in an IPv4 header addressed to AllSPFRouters with TTL 1 and protocol 89,
// and that in an Ethernet frame with a broadcast destination, per spec.md
// §4.1 and §6's bit-exact encapsulation contract.
func Encapsulate(srcMAC net.HardwareAddr, srcIP uint32, ospfPacket []byte) []byte {
	frame := make([]byte, ethHeaderLen+ipv4HeaderLen+len(ospfPacket))

	copy(frame[0:6], broadcastMAC)
	copy(frame[6:12], padMAC(srcMAC))
	binary.BigEndian.PutUint16(frame[12:14], etherTypeIPv4)

	ip := frame[ethHeaderLen : ethHeaderLen+ipv4HeaderLen]
	ip[0] = 0x45 // version 4, IHL 5 (no options)
	ip[1] = 0
	binary.BigEndian.PutUint16(ip[2:4], uint16(ipv4HeaderLen+len(ospfPacket)))
	binary.BigEndian.PutUint16(ip[4:6], 0) // identification
	binary.BigEndian.PutUint16(ip[6:8], 0) // flags/fragment offset
	ip[8] = 1                              // TTL
	ip[9] = ProtocolOSPF
	binary.BigEndian.PutUint16(ip[10:12], 0) // checksum, filled below
	binary.BigEndian.PutUint32(ip[12:16], srcIP)
	binary.BigEndian.PutUint32(ip[16:20], AllSPFRouters)
	binary.BigEndian.PutUint16(ip[10:12], checksum(ip))

	copy(frame[ethHeaderLen+ipv4HeaderLen:], ospfPacket)
	return frame
}

func padMAC(mac net.HardwareAddr) []byte {
	out := make([]byte, 6)
	copy(out, mac)
	return out
}

var (
	errFrameTooShort  = errors.New("ospf: frame too short to hold ethernet+ipv4 headers")
	errNotIPv4        = errors.New("ospf: ethertype is not IPv4")
	errNotOSPF        = errors.New("ospf: ip protocol is not OSPF (89)")
	errIPHeaderTooLong = errors.New("ospf: IPv4 header with options is not supported")
)

// Decapsulate strips the Ethernet and IPv4 headers from a received frame
// and returns the OSPF payload (common header onward), along with the
// source IPv4 address from the IP header. Any mismatch — too short,
// non-IPv4 ethertype, non-OSPF protocol, or IPv4 options present — is a
// malformed or uninteresting packet and is reported as an error for the
// caller to drop silently, per spec.md §7's taxonomy.
func Decapsulate(frame []byte) (payload []byte, srcIP uint32, err error) {
	if len(frame) < ethHeaderLen+ipv4HeaderLen {
		return nil, 0, errFrameTooShort
	}
	if binary.BigEndian.Uint16(frame[12:14]) != etherTypeIPv4 {
		return nil, 0, errNotIPv4
	}
	ip := frame[ethHeaderLen:]
	ihl := int(ip[0]&0x0f) * 4
	if ihl != ipv4HeaderLen {
		return nil, 0, errIPHeaderTooLong
	}
	if ip[9] != ProtocolOSPF {
		return nil, 0, errNotOSPF
	}
	srcIP = binary.BigEndian.Uint32(ip[12:16])
	return frame[ethHeaderLen+ihl:], srcIP, nil
}
