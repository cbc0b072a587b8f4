package conntrack

import (
	"time"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// Per-protocol idle timeouts (spec.md §3).
const (
	timeoutTCP   = 600 * time.Second
	timeoutUDP   = 120 * time.Second
	timeoutICMP  = 30 * time.Second
	timeoutOther = 60 * time.Second
)

func timeoutForProto(p flowtypes.L4Proto) time.Duration {
	switch p {
	case flowtypes.ProtoTCP:
		return timeoutTCP
	case flowtypes.ProtoUDP:
		return timeoutUDP
	case flowtypes.ProtoICMP:
		return timeoutICMP
	default:
		return timeoutOther
	}
}

// Entry is one live bidirectional flow, keyed by ConnKey. Direction
// attribution, timeout, and local IP are fixed at creation and never
// change (spec.md §4.2 invariants).
type Entry struct {
	Key ConnKey

	Created     time.Time
	LastUpdated time.Time
	Timeout     time.Duration

	// ACLDirection, ACLAddr, and LocalIP are fixed by the first packet
	// observed for this flow: inbound if host-bound, outbound otherwise.
	ACLDirection flowtypes.Direction
	ACLAddr      string
	LocalIP      string
	IPVer        int
	SvcPort      int // dst port of the first observed packet; NoPort for ICMP

	// New is true until the AUDRegistry's frequency detector has seen this
	// flow once; MarkedForDeletion is set once the AUDRegistry has folded
	// this flow's data into its aggregator and the entry is ready for the
	// next Table.Trim() sweep to drop it.
	New               bool
	MarkedForDeletion bool

	Category flowtypes.Category

	Data TimeSeries
}

func newEntry(key ConnKey, pkt flowtypes.Packet) *Entry {
	e := &Entry{
		Key:         key,
		Created:     pkt.Timestamp,
		LastUpdated: pkt.Timestamp,
		Timeout:     timeoutForProto(pkt.Proto),
		IPVer:       pkt.IPVer,
		SvcPort:     pkt.DstPort,
		New:         true,
		Category:    flowtypes.CategoryUndefined,
	}

	if pkt.Direction == flowtypes.Inbound {
		e.ACLDirection = flowtypes.Inbound
		e.ACLAddr = pkt.SrcIP
		e.LocalIP = pkt.DstIP
	} else {
		e.ACLDirection = flowtypes.Outbound
		e.ACLAddr = pkt.DstIP
		e.LocalIP = pkt.SrcIP
	}

	return e
}

// append records one more packet observed for this flow. dirIndex is
// forward (0) if pkt travelled in the entry's original ACL direction,
// reverse (1) otherwise.
func (e *Entry) append(pkt flowtypes.Packet) {
	dirIndex := flowtypes.Forward
	if pkt.Direction != e.ACLDirection {
		dirIndex = flowtypes.Reverse
	}

	e.Data.Add(pkt.Timestamp.Sub(e.Created), pkt.Length, dirIndex)
	e.LastUpdated = pkt.Timestamp
}

// Active reports whether this entry has seen traffic within its
// protocol-specific idle timeout, as of now.
func (e *Entry) Active(now time.Time) bool {
	return now.Sub(e.LastUpdated) < e.Timeout
}

// ACLKey is the natural grouping key for "what kind of conversation is
// this" — see flowtypes.ACLKey.
func (e *Entry) ACLKey() flowtypes.ACLKey {
	return flowtypes.ACLKey{
		IPVer:     e.IPVer,
		Direction: e.ACLDirection,
		Proto:     e.Key.Proto,
		RemoteIP:  e.ACLAddr,
		SvcPort:   e.SvcPort,
	}
}

// FreqKey is the ACLKey with the remote address dropped.
func (e *Entry) FreqKey() flowtypes.FreqKey {
	return e.ACLKey().Freq()
}
