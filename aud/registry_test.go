package aud

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/conntrack"
	"github.com/sifis-home/aud-sensor/flowtypes"
)

const (
	localIP  = "192.168.1.10"
	remoteIP = "10.0.0.5"
)

func newFixture() (*conntrack.Table, *Registry, *anomaly.Engine) {
	tbl := conntrack.NewTable([]net.IP{net.ParseIP(localIP)})
	return tbl, NewRegistry(nil), anomaly.NewEngine(100, 30*time.Second, 30)
}

func udpPkt(t0 time.Time, offset time.Duration, dir flowtypes.Direction, srcIP string, srcPort int, dstIP string, dstPort int) flowtypes.Packet {
	return flowtypes.Packet{
		Timestamp: t0.Add(offset),
		Direction: dir,
		IPVer:     4,
		Proto:     flowtypes.ProtoUDP,
		SrcIP:     srcIP,
		DstIP:     dstIP,
		Length:    40,
		SrcPort:   srcPort,
		DstPort:   dstPort,
	}
}

func aclKey() flowtypes.ACLKey {
	return flowtypes.ACLKey{
		IPVer:     4,
		Direction: flowtypes.Outbound,
		Proto:     flowtypes.ProtoUDP,
		RemoteIP:  remoteIP,
		SvcPort:   53,
	}
}

// A brand-new ACL key raises exactly one NovelFlow anomaly, never again
// for the same key.
func TestRegistry_NovelOnce(t *testing.T) {
	tbl, reg, engine := newFixture()
	t0 := time.Now()

	tbl.Record(udpPkt(t0, 0, flowtypes.Outbound, localIP, 5001, remoteIP, 53))
	reg.Update(tbl, engine)
	reg.Update(tbl, engine)

	snap := engine.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, flowtypes.CategoryNovelFlow, snap[0].Category)
	assert.Equal(t, remoteIP, snap[0].Details.RemoteIP)
}

// Once a flow goes idle, Registry.Update folds it into its Record and
// marks it for the next Table.Trim() sweep.
func TestRegistry_FoldsIdleFlowIntoRecord(t *testing.T) {
	tbl, reg, engine := newFixture()
	t0 := time.Now()

	tbl.Record(udpPkt(t0, 0, flowtypes.Outbound, localIP, 5001, remoteIP, 53))
	reg.Update(tbl, engine)

	entries := tbl.FlowsByACLKey(aclKey())
	require.Len(t, entries, 1)
	entries[0].LastUpdated = t0.Add(-200 * time.Second)

	reg.Update(tbl, engine)

	assert.True(t, entries[0].MarkedForDeletion)
	record, ok := reg.Lookup(aclKey())
	require.True(t, ok)
	assert.Equal(t, 1, record.Aggregator.FlowCount)
}

// A second flow under the same ACL key, with a PEP the Record has never
// folded before, raises a PatternMismatch anomaly.
func TestRegistry_PatternMismatchOnNovelPEP(t *testing.T) {
	tbl, reg, engine := newFixture()
	t0 := time.Now()

	// flow 1: a single outbound packet, PEP "0".
	tbl.Record(udpPkt(t0, 0, flowtypes.Outbound, localIP, 5001, remoteIP, 53))
	reg.Update(tbl, engine)
	entries := tbl.FlowsByACLKey(aclKey())
	require.Len(t, entries, 1)
	entries[0].LastUpdated = t0.Add(-200 * time.Second)
	reg.Update(tbl, engine)

	record, ok := reg.Lookup(aclKey())
	require.True(t, ok)
	require.Equal(t, 1, record.Aggregator.FlowCount)
	require.Equal(t, 1, record.Aggregator.PEPWeight("0"))

	// flow 2: outbound then an inbound reply, PEP "01" — never folded
	// before for this ACL key.
	t1 := time.Now()
	tbl.Record(udpPkt(t1, 0, flowtypes.Outbound, localIP, 5002, remoteIP, 53))
	tbl.Record(udpPkt(t1, time.Millisecond, flowtypes.Inbound, remoteIP, 53, localIP, 5002))
	reg.Update(tbl, engine)

	entries = tbl.FlowsByACLKey(aclKey())
	require.Len(t, entries, 2)
	entries[1].LastUpdated = t1.Add(-200 * time.Second)
	reg.Update(tbl, engine)

	var sawMismatch bool
	for _, a := range engine.Snapshot() {
		if a.Category == flowtypes.CategoryPatternMismatch {
			sawMismatch = true
		}
	}
	assert.True(t, sawMismatch)
}
