// Package ospf implements the control plane of a simplified, OSPFv2-derived
// link-state routing engine: wire codec, neighbor table, link-state
// database, timer-driven tick, receive handlers, and route reconciliation.
package ospf

import (
	"encoding/binary"
	"errors"
)

// Packet types carried in the common header's Type field.
const (
	TypeHello = 1
	TypeLSU   = 4
)

const (
	// HeaderLen is the size in bytes of the common OSPF header.
	HeaderLen = 24
	// helloBodyLen is the size in bytes of a Hello packet body.
	helloBodyLen = 24
	// LSALen is the size in bytes of a single LSA record.
	LSALen = 20
	// lsuFixedLen is the size of the LSU body before the LSA records.
	lsuFixedLen = 4
	// MaxEntries is the largest number of LSA records an LSU may carry.
	// Records past this count are ignored on receipt.
	MaxEntries = 25

	areaIDBackbone = 0
	authNone       = 0
)

var (
	errTooShort    = errors.New("ospf: packet shorter than declared header")
	errWrongType   = errors.New("ospf: header type does not match expected packet")
	errBadLength   = errors.New("ospf: header length field inconsistent with buffer")
)

// Header is the 24-byte common header shared by every OSPF packet type.
type Header struct {
	Version  uint8
	Type     uint8
	Length   uint16
	RouterID uint32
	AreaID   uint32
	Checksum uint16
	AuType   uint16
	Auth     uint64
}

// Hello is the body of an OSPF Hello packet, minus the common header.
// DesignatedRouter, BackupRouter and Neighbor are always zero in this
// profile (no DR/BDR election, single-slot neighbor simplification).
type Hello struct {
	NetworkMask      uint32
	HelloInterval    uint16
	Options          uint8
	Priority         uint8
	DeadInterval     uint32
	DesignatedRouter uint32
	BackupRouter     uint32
	Neighbor         uint32
}

// LSA is one Link State Advertisement record as carried inline in an LSU.
type LSA struct {
	RouterID uint32
	Subnet   uint32
	Mask     uint32
	Sequence uint32
	Age      uint16
	NumLinks uint16
}

// EncodeHello serializes a full Hello packet (header + body), computing and
// filling the checksum over the whole buffer with the checksum field zeroed.
func EncodeHello(routerID uint32, h Hello) []byte {
	buf := make([]byte, HeaderLen+helloBodyLen)
	putHeader(buf, Header{
		Version:  2,
		Type:     TypeHello,
		Length:   uint16(len(buf)),
		RouterID: routerID,
		AreaID:   areaIDBackbone,
		AuType:   authNone,
	})
	putHelloBody(buf[HeaderLen:], h)
	fillChecksum(buf)
	return buf
}

// EncodeLSU serializes a full LSU packet carrying up to MaxEntries LSAs.
// Callers must not pass more than MaxEntries records; EncodeLSU panics if
// they do, since producing an over-length LSU is a programmer error, not a
// runtime condition this profile needs to recover from.
func EncodeLSU(routerID uint32, lsas []LSA) []byte {
	if len(lsas) > MaxEntries {
		panic("ospf: EncodeLSU called with more than MaxEntries LSAs")
	}
	body := lsuFixedLen + LSALen*len(lsas)
	buf := make([]byte, HeaderLen+body)
	putHeader(buf, Header{
		Version:  2,
		Type:     TypeLSU,
		Length:   uint16(len(buf)),
		RouterID: routerID,
		AreaID:   areaIDBackbone,
		AuType:   authNone,
	})
	binary.BigEndian.PutUint32(buf[HeaderLen:], uint32(len(lsas)))
	off := HeaderLen + lsuFixedLen
	for _, l := range lsas {
		putLSA(buf[off:], l)
		off += LSALen
	}
	fillChecksum(buf)
	return buf
}

// DecodeHeader parses the common header from the front of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, errTooShort
	}
	h := Header{
		Version:  b[0],
		Type:     b[1],
		Length:   binary.BigEndian.Uint16(b[2:4]),
		RouterID: binary.BigEndian.Uint32(b[4:8]),
		AreaID:   binary.BigEndian.Uint32(b[8:12]),
		Checksum: binary.BigEndian.Uint16(b[12:14]),
		AuType:   binary.BigEndian.Uint16(b[14:16]),
		Auth:     binary.BigEndian.Uint64(b[16:24]),
	}
	if int(h.Length) > len(b) {
		return Header{}, errBadLength
	}
	return h, nil
}

// DecodeHello parses a Hello packet. b must start at the common header.
func DecodeHello(b []byte) (Header, Hello, error) {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return Header{}, Hello{}, err
	}
	if hdr.Type != TypeHello {
		return Header{}, Hello{}, errWrongType
	}
	if len(b) < HeaderLen+helloBodyLen {
		return Header{}, Hello{}, errTooShort
	}
	body := b[HeaderLen:]
	hello := Hello{
		NetworkMask:      binary.BigEndian.Uint32(body[0:4]),
		HelloInterval:    binary.BigEndian.Uint16(body[4:6]),
		Options:          body[6],
		Priority:         body[7],
		DeadInterval:     binary.BigEndian.Uint32(body[8:12]),
		DesignatedRouter: binary.BigEndian.Uint32(body[12:16]),
		BackupRouter:     binary.BigEndian.Uint32(body[16:20]),
		Neighbor:         binary.BigEndian.Uint32(body[20:24]),
	}
	return hdr, hello, nil
}

// DecodeLSU parses an LSU packet. b must start at the common header. Records
// past MaxEntries are ignored, per spec: the declared count is clamped
// before any record is read.
func DecodeLSU(b []byte) (Header, []LSA, error) {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if hdr.Type != TypeLSU {
		return Header{}, nil, errWrongType
	}
	if len(b) < HeaderLen+lsuFixedLen {
		return Header{}, nil, errTooShort
	}
	body := b[HeaderLen:]
	numLSAs := binary.BigEndian.Uint32(body[0:4])
	if numLSAs > MaxEntries {
		numLSAs = MaxEntries
	}
	need := lsuFixedLen + int(numLSAs)*LSALen
	if len(body) < need {
		return Header{}, nil, errTooShort
	}
	lsas := make([]LSA, numLSAs)
	off := lsuFixedLen
	for i := range lsas {
		lsas[i] = getLSA(body[off:])
		off += LSALen
	}
	return hdr, lsas, nil
}

func putHeader(buf []byte, h Header) {
	buf[0] = h.Version
	buf[1] = h.Type
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint32(buf[4:8], h.RouterID)
	binary.BigEndian.PutUint32(buf[8:12], h.AreaID)
	binary.BigEndian.PutUint16(buf[12:14], 0) // checksum filled by fillChecksum
	binary.BigEndian.PutUint16(buf[14:16], h.AuType)
	binary.BigEndian.PutUint64(buf[16:24], h.Auth)
}

func putHelloBody(buf []byte, h Hello) {
	binary.BigEndian.PutUint32(buf[0:4], h.NetworkMask)
	binary.BigEndian.PutUint16(buf[4:6], h.HelloInterval)
	buf[6] = h.Options
	buf[7] = h.Priority
	binary.BigEndian.PutUint32(buf[8:12], h.DeadInterval)
	binary.BigEndian.PutUint32(buf[12:16], h.DesignatedRouter)
	binary.BigEndian.PutUint32(buf[16:20], h.BackupRouter)
	binary.BigEndian.PutUint32(buf[20:24], h.Neighbor)
}

func putLSA(buf []byte, l LSA) {
	binary.BigEndian.PutUint32(buf[0:4], l.RouterID)
	binary.BigEndian.PutUint32(buf[4:8], l.Subnet)
	binary.BigEndian.PutUint32(buf[8:12], l.Mask)
	binary.BigEndian.PutUint32(buf[12:16], l.Sequence)
	binary.BigEndian.PutUint16(buf[16:18], l.Age)
	binary.BigEndian.PutUint16(buf[18:20], l.NumLinks)
}

func getLSA(buf []byte) LSA {
	return LSA{
		RouterID: binary.BigEndian.Uint32(buf[0:4]),
		Subnet:   binary.BigEndian.Uint32(buf[4:8]),
		Mask:     binary.BigEndian.Uint32(buf[8:12]),
		Sequence: binary.BigEndian.Uint32(buf[12:16]),
		Age:      binary.BigEndian.Uint16(buf[16:18]),
		NumLinks: binary.BigEndian.Uint16(buf[18:20]),
	}
}

// fillChecksum computes the one's-complement checksum over the whole packet
// with the checksum field zeroed, then writes it into the header in place.
func fillChecksum(buf []byte) {
	binary.BigEndian.PutUint16(buf[12:14], 0)
	binary.BigEndian.PutUint16(buf[12:14], checksum(buf))
}

// checksum computes the RFC 1071 one's-complement 16-bit checksum used by
// IPv4 and, here, OSPF: sum 16-bit words in network byte order, fold carries
// back in, complement the result. The checksum field must already be zero
// in b when this is called.
func checksum(b []byte) uint16 {
	var sum uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
