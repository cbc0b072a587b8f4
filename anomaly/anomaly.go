// Package anomaly implements the three detectors SPEC_FULL.md §4.5
// describes — NovelFlow, FrequentFlow, PatternMismatch — plus the bounded
// ring buffer their output accumulates in and the mark-benign workflow an
// operator uses to acknowledge one.
//
// Grounded on original_source/aud_sensor/aud.py's Anomaly class for the
// shape of a raised anomaly, and on angelosk-HoneyBadger's bounded
// packet-history ring for the fixed-capacity, oldest-evicts-first buffer
// idiom.
package anomaly

import (
	"time"

	"github.com/google/uuid"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// Details is the anomaly's details blob: the flow attributes that explain
// why it was raised. RemoteIP is empty for FrequentFlow anomalies, which
// are identified by a FreqKey (no single remote address) rather than a
// full ACLKey. LocalIP is the conversation's local endpoint, carried
// through from conntrack.Entry so the Publisher can stamp subject_ip on
// the published envelope.
type Details struct {
	IPVer     int
	Direction flowtypes.Direction
	Proto     flowtypes.L4Proto
	RemoteIP  string
	SvcPort   int
	LocalIP   string
}

// Anomaly is one raised detection, as published to the WS/HTTP consumer.
type Anomaly struct {
	UUID     uuid.UUID
	Time     time.Time
	Category flowtypes.Category
	Severity flowtypes.Severity
	Score    float64
	Details  Details
}

func detailsFromACLKey(k flowtypes.ACLKey, localIP string) Details {
	return Details{
		IPVer:     k.IPVer,
		Direction: k.Direction,
		Proto:     k.Proto,
		RemoteIP:  k.RemoteIP,
		SvcPort:   k.SvcPort,
		LocalIP:   localIP,
	}
}

func detailsFromFreqKey(k flowtypes.FreqKey, localIP string) Details {
	return Details{
		IPVer:     k.IPVer,
		Direction: k.Direction,
		Proto:     k.Proto,
		SvcPort:   k.SvcPort,
		LocalIP:   localIP,
	}
}
