package anomaly

import (
	"math"
	"time"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// DefaultFrequencyWindow and DefaultFrequencyThreshold are the default W
// and T of the FrequentFlow detector: more than T flows sharing a FreqKey
// within a trailing W-second window is a FrequentFlow anomaly. The engine
// takes its window and threshold as NewEngine arguments; the config
// package does not read these vars and sets its own defaults of the same
// values.
var (
	DefaultFrequencyWindow    = 30 * time.Second
	DefaultFrequencyThreshold = 30
)

type frequencyCounter struct {
	key       flowtypes.FreqKey
	created   []time.Time
	triggered bool   // already raised an anomaly for the window currently over threshold
	localIP   string // local endpoint of the flow that first created this counter
}

// frequencyTracker counts new-flow creations per FreqKey over a sliding
// window and decides, once per Evaluate, which keys are over threshold.
type frequencyTracker struct {
	window    time.Duration
	threshold int
	counters  map[flowtypes.FreqKey]*frequencyCounter
}

func newFrequencyTracker(window time.Duration, threshold int) *frequencyTracker {
	return &frequencyTracker{
		window:    window,
		threshold: threshold,
		counters:  make(map[flowtypes.FreqKey]*frequencyCounter),
	}
}

// Observe records that one new flow with the given FreqKey was created at
// t. Called once per flow, at creation (New == true), never on repeat
// packets of an existing flow.
func (f *frequencyTracker) Observe(key flowtypes.FreqKey, t time.Time, localIP string) {
	c, ok := f.counters[key]
	if !ok {
		c = &frequencyCounter{key: key, localIP: localIP}
		f.counters[key] = c
	}
	c.created = append(c.created, t)
}

// Evaluate drops timestamps older than window relative to now, and
// returns one Anomaly per FreqKey whose remaining count exceeds
// threshold. A key only fires once per continuous over-threshold stretch:
// it resets to un-triggered once it falls back under threshold.
func (f *frequencyTracker) Evaluate(now time.Time) []Anomaly {
	var out []Anomaly
	cutoff := now.Add(-f.window)

	for key, c := range f.counters {
		kept := c.created[:0]
		for _, t := range c.created {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		c.created = kept

		count := len(c.created)
		if count == 0 {
			delete(f.counters, key)
			continue
		}

		if count > f.threshold {
			if !c.triggered {
				c.triggered = true
				out = append(out, Anomaly{
					Category: flowtypes.CategoryFrequentFlow,
					Severity: flowtypes.SeverityUnknown,
					Score:    roundScore(float64(count) / float64(f.threshold)),
					Details:  detailsFromFreqKey(key, c.localIP),
				})
			}
		} else {
			c.triggered = false
		}
	}
	return out
}

func roundScore(x float64) float64 {
	return math.Round(x*1000) / 1000
}
