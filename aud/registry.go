// Package aud implements the AUD (Application Usage Description) layer:
// a Record per distinct ACL key tracking what "normal" looks like for
// that conversation, and the Registry that allocates one on first sight
// of a key (the NovelFlow trigger) and folds completed flows into it.
//
// Grounded on original_source/aud_sensor/aud.py's AUD/AUDRecord/
// TimeSeriesAggregator classes and original_source/aud_manager/
// aud_manager.py's aud_update(), per SPEC_FULL.md §4.4.
package aud

import (
	"time"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/conntrack"
	"github.com/sifis-home/aud-sensor/flowtypes"
)

// Registry owns every Record, keyed by ACLKey. Like conntrack.Table and
// anomaly.Engine, it is touched only by the Controller goroutine.
type Registry struct {
	records  map[flowtypes.ACLKey]*Record
	resolver ASNResolver
}

// NewRegistry constructs an empty Registry. A nil resolver defaults to
// NoopResolver.
func NewRegistry(resolver ASNResolver) *Registry {
	if resolver == nil {
		resolver = NoopResolver{}
	}
	return &Registry{
		records:  make(map[flowtypes.ACLKey]*Record),
		resolver: resolver,
	}
}

// Update walks every ACL key currently present in table, allocating a new
// Record (and raising a NovelFlow anomaly) the first time a key is seen,
// handing every freshly-created flow's FreqKey to the frequency detector
// exactly once, and folding any now-inactive flow into its Record before
// marking it for Table.Trim() to sweep away. It returns every anomaly
// raised during this call (NovelFlow, PatternMismatch) so the caller can
// publish them — FrequentFlow anomalies are raised separately, by
// anomaly.Engine.Evaluate.
func (reg *Registry) Update(table *conntrack.Table, engine *anomaly.Engine) []anomaly.Anomaly {
	now := time.Now()
	var raised []anomaly.Anomaly

	for key := range table.ACLKeys() {
		flows := table.FlowsByACLKey(key)

		record, ok := reg.records[key]
		if !ok {
			asn, _ := reg.resolver.Lookup(key.RemoteIP)
			record = newRecord(key, asn, now)
			reg.records[key] = record
			localIP := ""
			if len(flows) > 0 {
				localIP = flows[0].LocalIP
			}
			raised = append(raised, engine.RaiseNovel(key, localIP))
		}

		for _, entry := range flows {
			if entry.New {
				engine.ObserveNewFlow(entry.FreqKey(), entry.Created, entry.LocalIP)
				entry.New = false
			}

			if !entry.MarkedForDeletion && !entry.Active(now) {
				if a, ok := record.Process(entry, engine); ok {
					raised = append(raised, a)
				}
				entry.MarkedForDeletion = true
			}
		}
	}

	return raised
}

// Len returns the number of distinct ACL keys tracked.
func (reg *Registry) Len() int {
	return len(reg.records)
}

// Lookup returns the Record for an ACL key, if one has been allocated.
func (reg *Registry) Lookup(key flowtypes.ACLKey) (*Record, bool) {
	r, ok := reg.records[key]
	return r, ok
}

// Keys returns every ACL key a Record has been allocated for.
func (reg *Registry) Keys() []flowtypes.ACLKey {
	keys := make([]flowtypes.ACLKey, 0, len(reg.records))
	for k := range reg.records {
		keys = append(keys, k)
	}
	return keys
}
