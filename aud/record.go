package aud

import (
	"time"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/conntrack"
	"github.com/sifis-home/aud-sensor/flowtypes"
)

// Record is the Go form of original_source/aud_sensor/aud.py's AUDRecord:
// the per-ACL-key accumulation of "what this device normally does" that
// PatternMismatch is checked against. One Record exists for the lifetime
// of the process per distinct ACLKey ever seen.
type Record struct {
	ACLKey  flowtypes.ACLKey
	Created time.Time

	LastUpdated time.Time

	// RemoteAS is the ASNResolver's best-effort label for the remote
	// address; empty if the resolver had nothing.
	RemoteAS string

	Aggregator *Aggregator
}

func newRecord(key flowtypes.ACLKey, remoteAS string, now time.Time) *Record {
	return &Record{
		ACLKey:      key,
		Created:     now,
		LastUpdated: now,
		RemoteAS:    remoteAS,
		Aggregator:  newAggregator(),
	}
}

// Process folds one completed flow's data into the record's aggregator,
// raising a PatternMismatch anomaly first if the flow's PEP carried no
// prior weight — i.e. this ACL key has history, but never in this exact
// shape. The second return value is false when no anomaly was raised.
func (r *Record) Process(entry *conntrack.Entry, engine *anomaly.Engine) (anomaly.Anomaly, bool) {
	var raised anomaly.Anomaly
	var ok bool

	pep := entry.Data.PEP()
	if r.Aggregator.FlowCount > 0 && r.Aggregator.PEPWeight(pep) == 0 {
		raised = engine.RaisePatternMismatch(r.ACLKey, entry.LocalIP)
		ok = true
	}

	r.Aggregator.Fold(&entry.Data)
	r.LastUpdated = time.Now()
	return raised, ok
}
