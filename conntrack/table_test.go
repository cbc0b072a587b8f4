package conntrack

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

const (
	localIP  = "192.168.1.10"
	remoteIP = "10.0.0.5"
)

func newTestTable() *Table {
	return NewTable([]net.IP{net.ParseIP(localIP)})
}

func outboundPkt(t0 time.Time, offset time.Duration, length int) flowtypes.Packet {
	return flowtypes.Packet{
		Timestamp: t0.Add(offset),
		Direction: flowtypes.Outbound,
		IPVer:     4,
		Proto:     flowtypes.ProtoTCP,
		SrcIP:     localIP,
		DstIP:     remoteIP,
		Length:    length,
		SrcPort:   12345,
		DstPort:   443,
	}
}

func inboundPkt(t0 time.Time, offset time.Duration, length int) flowtypes.Packet {
	return flowtypes.Packet{
		Timestamp: t0.Add(offset),
		Direction: flowtypes.Inbound,
		IPVer:     4,
		Proto:     flowtypes.ProtoTCP,
		SrcIP:     remoteIP,
		DstIP:     localIP,
		Length:    length,
		SrcPort:   443,
		DstPort:   12345,
	}
}

// Scenario 1 (spec.md §8): single TCP conversation.
func TestTable_SingleConversation(t *testing.T) {
	tbl := newTestTable()
	t0 := time.Now()

	tbl.Record(outboundPkt(t0, 0, 60))
	tbl.Record(outboundPkt(t0, time.Millisecond, 60))
	tbl.Record(outboundPkt(t0, 2*time.Millisecond, 1400))
	tbl.Record(inboundPkt(t0, 3*time.Millisecond, 1500))
	tbl.Record(inboundPkt(t0, 4*time.Millisecond, 60))

	require.Equal(t, 1, tbl.Len())
	entry := tbl.conns[0]

	assert.Equal(t, "00011", entry.Data.PEP())
	assert.Equal(t, flowtypes.ACLKey{
		IPVer:     4,
		Direction: flowtypes.Outbound,
		Proto:     flowtypes.ProtoTCP,
		RemoteIP:  remoteIP,
		SvcPort:   443,
	}, entry.ACLKey())
}

// Scenario 2 (spec.md §8): direction canonicalization.
func TestTable_DirectionCanonicalization(t *testing.T) {
	tbl := newTestTable()
	t0 := time.Now()

	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoTCP,
		SrcIP: localIP, DstIP: remoteIP, Length: 40, SrcPort: 12345, DstPort: 443,
	})
	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Inbound, IPVer: 4, Proto: flowtypes.ProtoTCP,
		SrcIP: remoteIP, DstIP: localIP, Length: 40, SrcPort: 443, DstPort: 12345,
	})

	assert.Equal(t, 1, tbl.Len())
}

// Scenario 3 (spec.md §8): idle eviction.
func TestTable_IdleEviction(t *testing.T) {
	tbl := newTestTable()
	t0 := time.Now()

	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoUDP,
		SrcIP: localIP, DstIP: remoteIP, Length: 40, SrcPort: 5000, DstPort: 53,
	})
	require.Equal(t, 1, tbl.Len())

	entry := tbl.conns[0]
	entry.LastUpdated = t0.Add(-125 * time.Second)

	tbl.Trim()
	assert.Equal(t, 0, len(tbl.lookup))

	// The slice sweep only drops entries marked_for_deletion, which only the
	// AUDRegistry sets (spec.md §4.3) — an inactive-but-unprocessed entry is
	// removed from lookup but still present for one more AUD pass.
	entry.MarkedForDeletion = true
	tbl.Trim()
	assert.Equal(t, 0, tbl.Len())
}

// Exercises why controller.tick() must run AUDRegistry.Update (which sets
// MarkedForDeletion on inactive entries it has folded in) before
// Table.Trim(): once MarkedForDeletion is set, Trim's lookup-eviction and
// conns-sweep remove the stale entry from both places in the same call, so
// no packet arriving afterward for the same ConnKey can land on a lookup
// miss while a stale Entry for that key still lingers in conns.
func TestTable_TrimAfterMarkedForDeletionLeavesNoDanglingEntry(t *testing.T) {
	tbl := newTestTable()
	t0 := time.Now()

	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoUDP,
		SrcIP: localIP, DstIP: remoteIP, Length: 40, SrcPort: 5000, DstPort: 53,
	})
	require.Equal(t, 1, tbl.Len())

	stale := tbl.conns[0]
	stale.LastUpdated = t0.Add(-125 * time.Second)
	stale.MarkedForDeletion = true // set by AUDRegistry.Update before Trim runs

	tbl.Trim()
	assert.Equal(t, 0, len(tbl.lookup))
	assert.Equal(t, 0, tbl.Len())

	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoUDP,
		SrcIP: localIP, DstIP: remoteIP, Length: 40, SrcPort: 5000, DstPort: 53,
	})
	require.Equal(t, 1, tbl.Len(), "the next flow with this key must start clean, not append alongside a stale duplicate")
	assert.NotSame(t, stale, tbl.conns[0])
}

func TestTable_DropsLoopbackAndSelfToSelf(t *testing.T) {
	tbl := newTestTable()
	t0 := time.Now()

	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoTCP,
		SrcIP: "127.0.0.1", DstIP: remoteIP, Length: 40, SrcPort: 1, DstPort: 2,
	})
	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoTCP,
		SrcIP: localIP, DstIP: localIP, Length: 40, SrcPort: 1, DstPort: 2,
	})
	tbl.Record(flowtypes.Packet{
		Timestamp: t0, Direction: flowtypes.Outbound, IPVer: 4, Proto: flowtypes.ProtoTCP,
		SrcIP: "8.8.8.8", DstIP: "8.8.4.4", Length: 40, SrcPort: 1, DstPort: 2,
	})

	assert.Equal(t, 0, tbl.Len())
}
