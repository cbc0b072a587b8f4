package flowtypes

import "time"

// Packet is a single decoded frame, as produced by the capture package and
// consumed by conntrack. It is a value type: once handed off, the producer
// never touches it again.
type Packet struct {
	Timestamp time.Time
	Direction Direction

	IPVer int
	Proto L4Proto
	SrcIP string
	DstIP string
	Length int

	// SrcPort/DstPort are NoPort for protocols without a port (ICMP, IGMP).
	SrcPort int
	DstPort int

	// TCPFlags holds the raw TCP flag byte when Proto == ProtoTCP; the zero
	// value (and the HasTCPFlags bool) distinguish "no flags" from "flags
	// byte 0".
	TCPFlags    uint8
	HasTCPFlags bool

	// ICMPType/ICMPCode hold the ICMP header's type+code when Proto ==
	// ProtoICMP; HasICMP distinguishes "no ICMP header" from "type 0".
	ICMPType uint8
	ICMPCode uint8
	HasICMP  bool
}
