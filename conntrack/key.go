package conntrack

import (
	"fmt"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// ConnKey is the canonical, direction-independent 5-tuple both directions
// of a flow share. Canonicalization rule (spec.md §3): the endpoint with
// the higher port number goes in the A-slot; ties are broken by
// lexicographic address order. This guarantees that for any packet and its
// direction-flipped twin, connKey(P) == connKey(P').
type ConnKey struct {
	Proto      flowtypes.L4Proto
	AddrA      string
	AddrB      string
	PortA      int
	PortB      int
}

func (k ConnKey) String() string {
	return fmt.Sprintf("%s %s:%d <-> %s:%d", k.Proto.Name(), k.AddrA, k.PortA, k.AddrB, k.PortB)
}

// canonicalKey builds a ConnKey from one observed direction of a packet.
func canonicalKey(proto flowtypes.L4Proto, srcAddr, dstAddr string, srcPort, dstPort int) ConnKey {
	addrA, addrB := srcAddr, dstAddr
	portA, portB := srcPort, dstPort

	if portB > portA || (portB == portA && dstAddr < srcAddr) {
		addrA, addrB = dstAddr, srcAddr
		portA, portB = dstPort, srcPort
	}

	return ConnKey{
		Proto: proto,
		AddrA: addrA,
		AddrB: addrB,
		PortA: portA,
		PortB: portB,
	}
}
