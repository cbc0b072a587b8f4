// Package flowtypes holds the small, comparable value types shared by the
// capture, conntrack, aud, and anomaly packages: protocol numbers,
// direction, the ACL and frequency keys flows are grouped by, and the
// category/severity enums attached to anomalies.
package flowtypes

import "fmt"

// Direction is which way a packet crossed the interface relative to the
// host, or which way a flow's remote endpoint sits relative to the local
// IP once a connection's ACL attribution has been fixed.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	Inbound
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// SampleDirection is the per-packet forward/reverse index recorded in a
// flow's TimeSeries: 0 for packets travelling in the flow's original
// (ACL-defining) direction, 1 for the reverse.
type SampleDirection uint8

const (
	Forward SampleDirection = 0
	Reverse SampleDirection = 1
)

// L4Proto is the IP protocol number of a packet's transport header.
type L4Proto uint8

const (
	ProtoICMP L4Proto = 1
	ProtoIGMP L4Proto = 2
	ProtoTCP  L4Proto = 6
	ProtoUDP  L4Proto = 17
)

// Name returns the protocol's short mnemonic, falling back to its numeric
// value for anything this sensor doesn't special-case.
func (p L4Proto) Name() string {
	switch p {
	case ProtoICMP:
		return "ICMP"
	case ProtoIGMP:
		return "IGMP"
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	default:
		return fmt.Sprintf("proto(%d)", uint8(p))
	}
}

// NoPort is the sentinel used in place of a source/destination port for
// protocols that don't carry one (ICMP, IGMP).
const NoPort = -1

// Category classifies why an Anomaly was raised.
type Category int

const (
	CategoryUndefined Category = iota
	CategoryNovelFlow
	CategoryFrequentFlow
	CategoryPatternMismatch
)

func (c Category) String() string {
	switch c {
	case CategoryNovelFlow:
		return "NovelFlow"
	case CategoryFrequentFlow:
		return "FrequentFlow"
	case CategoryPatternMismatch:
		return "PatternMismatch"
	default:
		return "Undefined"
	}
}

// Severity is assigned to every Anomaly. No severity policy is defined by
// this system yet (see SPEC_FULL.md §9); everything is emitted Unknown.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityBenign
	SeveritySuspicious
	SeverityAlarming
)

func (s Severity) String() string {
	switch s {
	case SeverityBenign:
		return "Benign"
	case SeveritySuspicious:
		return "Suspicious"
	case SeverityAlarming:
		return "Alarming"
	default:
		return "Unknown"
	}
}

// ACLKey identifies a class of conversation a device has: what kind of
// remote address and service it talks to, over which protocol, in which
// direction. AUDRegistry groups flows by this key.
type ACLKey struct {
	IPVer     int
	Direction Direction
	Proto     L4Proto
	RemoteIP  string
	SvcPort   int
}

func (k ACLKey) String() string {
	return fmt.Sprintf("ACL(v%d %s %s %s:%d)", k.IPVer, k.Direction, k.Proto.Name(), k.RemoteIP, k.SvcPort)
}

// FreqKey is an ACLKey with the remote address dropped, so that many
// distinct peers hitting the same local service collapse into one rate
// counter for the FrequentFlow detector.
type FreqKey struct {
	IPVer     int
	Direction Direction
	Proto     L4Proto
	SvcPort   int
}

func (k FreqKey) String() string {
	return fmt.Sprintf("Freq(v%d %s %s :%d)", k.IPVer, k.Direction, k.Proto.Name(), k.SvcPort)
}

// Freq strips the remote address off an ACLKey.
func (k ACLKey) Freq() FreqKey {
	return FreqKey{
		IPVer:     k.IPVer,
		Direction: k.Direction,
		Proto:     k.Proto,
		SvcPort:   k.SvcPort,
	}
}
