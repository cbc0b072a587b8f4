package capture

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

func buildTCPFrame(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		SYN:     true,
		ACK:     true,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload("x")))
	return buf.Bytes()
}

func TestDecodeFrame_TCP(t *testing.T) {
	data := buildTCPFrame(t, "192.168.1.10", "93.184.216.34", 51000, 443)

	pkt, ok := decodeFrame(data, unix.PACKET_OUTGOING, time.Unix(0, 0))
	require.True(t, ok)

	want := flowtypes.Packet{
		Timestamp:   time.Unix(0, 0),
		Direction:   flowtypes.Outbound,
		IPVer:       4,
		Proto:       flowtypes.ProtoTCP,
		SrcIP:       "192.168.1.10",
		DstIP:       "93.184.216.34",
		Length:      pkt.Length,
		SrcPort:     51000,
		DstPort:     443,
		TCPFlags:    1<<1 | 1<<4, // SYN|ACK
		HasTCPFlags: true,
	}
	if diff := cmp.Diff(want, pkt); diff != "" {
		t.Errorf("decodeFrame mismatch (-want +got):\n%s", diff)
	}
}

func buildICMPFrame(t *testing.T, srcIP, dstIP string, icmpType, icmpCode uint8) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(icmpType, icmpCode),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, icmp, gopacket.Payload("x")))
	return buf.Bytes()
}

func buildGREFrame(t *testing.T, srcIP, dstIP string) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolGRE,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, gopacket.Payload("x")))
	return buf.Bytes()
}

func TestDecodeFrame_ICMPExtractsTypeAndCode(t *testing.T) {
	data := buildICMPFrame(t, "192.168.1.10", "93.184.216.34", 8, 0)

	pkt, ok := decodeFrame(data, unix.PACKET_OUTGOING, time.Unix(0, 0))
	require.True(t, ok)

	want := flowtypes.Packet{
		Timestamp: time.Unix(0, 0),
		Direction: flowtypes.Outbound,
		IPVer:     4,
		Proto:     flowtypes.ProtoICMP,
		SrcIP:     "192.168.1.10",
		DstIP:     "93.184.216.34",
		Length:    pkt.Length,
		SrcPort:   flowtypes.NoPort,
		DstPort:   flowtypes.NoPort,
		ICMPType:  8,
		ICMPCode:  0,
		HasICMP:   true,
	}
	if diff := cmp.Diff(want, pkt); diff != "" {
		t.Errorf("decodeFrame mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFrame_DropsUnsupportedProtocol(t *testing.T) {
	data := buildGREFrame(t, "192.168.1.10", "93.184.216.34")

	_, ok := decodeFrame(data, unix.PACKET_OUTGOING, time.Unix(0, 0))
	assert.False(t, ok)
}

func TestDecodeFrame_DropsUnknownPktType(t *testing.T) {
	data := buildTCPFrame(t, "192.168.1.10", "93.184.216.34", 51000, 443)

	_, ok := decodeFrame(data, unix.PACKET_OTHERHOST, time.Unix(0, 0))
	assert.False(t, ok)
}

func TestDecodeFrame_Inbound(t *testing.T) {
	data := buildTCPFrame(t, "93.184.216.34", "192.168.1.10", 443, 51000)

	pkt, ok := decodeFrame(data, unix.PACKET_HOST, time.Unix(0, 0))
	require.True(t, ok)
	assert.Equal(t, flowtypes.Inbound, pkt.Direction)
}
