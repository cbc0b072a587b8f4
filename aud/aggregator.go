package aud

import "github.com/sifis-home/aud-sensor/conntrack"

// Aggregator is the Go form of original_source/aud_sensor/aud.py's
// TimeSeriesAggregator: a running summary of every flow ever folded into
// one AUDRecord. It never forgets a PEP once seen, so PatternMismatch can
// tell a brand-new exchange pattern from one the device has used before.
type Aggregator struct {
	ForwardBytes int64
	ReverseBytes int64
	SampleCount  int
	FlowCount    int

	// pepWeight counts how many folded flows exhibited each observed PEP
	// string, so PatternMismatch can ask "has this pattern ever carried any
	// weight before".
	pepWeight map[string]int
}

func newAggregator() *Aggregator {
	return &Aggregator{pepWeight: make(map[string]int)}
}

// Fold absorbs one completed flow's TimeSeries into the running totals.
func (a *Aggregator) Fold(ts *conntrack.TimeSeries) {
	fwd, rev := ts.ForwardReverseTotals()
	a.ForwardBytes += fwd
	a.ReverseBytes += rev
	a.SampleCount += ts.SampleCount()
	a.FlowCount++
	a.pepWeight[ts.PEP()]++
}

// PEPWeight returns how many times the given PEP string has been observed
// across every flow folded so far (0 if never).
func (a *Aggregator) PEPWeight(pep string) int {
	return a.pepWeight[pep]
}

// DistinctPEPs returns the number of distinct PEP strings observed.
func (a *Aggregator) DistinctPEPs() int {
	return len(a.pepWeight)
}
