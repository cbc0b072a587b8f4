package capture

import (
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"

	"github.com/sifis-home/aud-sensor/flowtypes"
	"github.com/sifis-home/aud-sensor/printer"
)

var warnIPv6Once sync.Once

// decodeFrame turns one AF_PACKET-delivered Ethernet frame into a
// flowtypes.Packet. It reports false for anything this sensor doesn't
// track: non-IP ethertypes, IPv6 (logged once — see the IPv6 Open
// Question resolution), and link-layer traffic this host only overheard
// (not addressed to or sent by it).
func decodeFrame(data []byte, pktType uint8, ts time.Time) (flowtypes.Packet, bool) {
	var dir flowtypes.Direction
	switch pktType {
	case unix.PACKET_OUTGOING:
		dir = flowtypes.Outbound
	case unix.PACKET_HOST:
		dir = flowtypes.Inbound
	default:
		return flowtypes.Packet{}, false
	}

	decoded := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)

	networkLayer := decoded.NetworkLayer()
	if networkLayer == nil {
		return flowtypes.Packet{}, false
	}

	pkt := flowtypes.Packet{
		Timestamp: ts,
		Direction: dir,
		Length:    len(data),
		SrcPort:   flowtypes.NoPort,
		DstPort:   flowtypes.NoPort,
	}

	switch nl := networkLayer.(type) {
	case *layers.IPv4:
		pkt.IPVer = 4
		pkt.SrcIP = nl.SrcIP.String()
		pkt.DstIP = nl.DstIP.String()
		pkt.Proto = flowtypes.L4Proto(nl.Protocol)
	case *layers.IPv6:
		warnIPv6Once.Do(func() {
			printer.Debugf("capture: IPv6 traffic seen, not tracked\n")
		})
		return flowtypes.Packet{}, false
	default:
		return flowtypes.Packet{}, false
	}

	// L4 dispatch by IP protocol number: anything besides TCP/UDP/ICMP is
	// dropped rather than tracked with a NoPort sentinel.
	switch pkt.Proto {
	case flowtypes.ProtoTCP:
		tcp, ok := decoded.TransportLayer().(*layers.TCP)
		if !ok {
			return flowtypes.Packet{}, false
		}
		pkt.SrcPort = int(tcp.SrcPort)
		pkt.DstPort = int(tcp.DstPort)
		pkt.TCPFlags = tcpFlagsByte(tcp)
		pkt.HasTCPFlags = true
	case flowtypes.ProtoUDP:
		udp, ok := decoded.TransportLayer().(*layers.UDP)
		if !ok {
			return flowtypes.Packet{}, false
		}
		pkt.SrcPort = int(udp.SrcPort)
		pkt.DstPort = int(udp.DstPort)
	case flowtypes.ProtoICMP:
		icmp, ok := decoded.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		if !ok {
			return flowtypes.Packet{}, false
		}
		pkt.ICMPType = icmp.TypeCode.Type()
		pkt.ICMPCode = icmp.TypeCode.Code()
		pkt.HasICMP = true
	default:
		return flowtypes.Packet{}, false
	}

	return pkt, true
}

func tcpFlagsByte(t *layers.TCP) uint8 {
	var b uint8
	if t.FIN {
		b |= 1 << 0
	}
	if t.SYN {
		b |= 1 << 1
	}
	if t.RST {
		b |= 1 << 2
	}
	if t.PSH {
		b |= 1 << 3
	}
	if t.ACK {
		b |= 1 << 4
	}
	if t.URG {
		b |= 1 << 5
	}
	if t.ECE {
		b |= 1 << 6
	}
	if t.CWR {
		b |= 1 << 7
	}
	return b
}
