package anomaly

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// ErrNotFound is returned by MarkBenign when no ring entry matches the
// given UUID.
var ErrNotFound = errors.New("anomaly UUID not found")

// ErrMalformedUUID is returned by MarkBenign when the given string isn't a
// valid UUID.
var ErrMalformedUUID = errors.New("malformed anomaly UUID")

// Engine owns the three detectors and the bounded ring their output
// accumulates in. Like conntrack.Table, it is touched only by the
// Controller goroutine, except for the ring: it has its own lock, so
// MarkBenign and Snapshot may be called from other goroutines.
type Engine struct {
	ring      *ring
	frequency *frequencyTracker
}

// NewEngine constructs an Engine with the given ring capacity and
// frequency-detector window/threshold.
func NewEngine(ringCapacity int, freqWindow time.Duration, freqThreshold int) *Engine {
	return &Engine{
		ring:      newRing(ringCapacity),
		frequency: newFrequencyTracker(freqWindow, freqThreshold),
	}
}

// RaiseNovel records a NovelFlow anomaly for an ACL key the AUDRegistry
// has just allocated a new AUDRecord for, and stamps it with a fresh
// random UUID. localIP is the conversation's local endpoint, published as
// subject_ip.
func (e *Engine) RaiseNovel(key flowtypes.ACLKey, localIP string) Anomaly {
	a := novelAnomaly(key, localIP)
	a.UUID = uuid.New()
	a.Time = time.Now()
	e.ring.Push(a)
	return a
}

// RaisePatternMismatch records a PatternMismatch anomaly for a flow whose
// PEP had zero prior weight in its AUDRecord.
func (e *Engine) RaisePatternMismatch(key flowtypes.ACLKey, localIP string) Anomaly {
	a := patternMismatchAnomaly(key, localIP)
	a.UUID = uuid.New()
	a.Time = time.Now()
	e.ring.Push(a)
	return a
}

// ObserveNewFlow feeds the frequency detector's sliding window: call this
// once per flow, at the moment AUDRegistry first sees it (Entry.New).
func (e *Engine) ObserveNewFlow(key flowtypes.FreqKey, when time.Time, localIP string) {
	e.frequency.Observe(key, when, localIP)
}

// Evaluate runs the frequency detector's window-expiry and
// threshold check, pushing any resulting anomalies into the ring. Called
// once per Controller tick.
func (e *Engine) Evaluate(now time.Time) []Anomaly {
	fresh := e.frequency.Evaluate(now)
	for i := range fresh {
		fresh[i].UUID = uuid.New()
		fresh[i].Time = now
		e.ring.Push(fresh[i])
	}
	return fresh
}

// Snapshot returns every anomaly currently held by the ring, oldest
// first.
func (e *Engine) Snapshot() []Anomaly {
	return e.ring.Snapshot()
}

// MarkBenign acknowledges one anomaly by UUID string, or every anomaly
// currently in the ring when given the literal "all". It mirrors the
// /mark-benign/<uuid> route's contract (SPEC_FULL.md §6): "OK" on
// success, a wrapped ErrNotFound/ErrMalformedUUID otherwise.
func (e *Engine) MarkBenign(idStr string) (string, error) {
	if strings.EqualFold(idStr, "all") {
		e.ring.Clear()
		return "OK", nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedUUID, "%q", idStr)
	}

	if !e.ring.Remove(id) {
		return "", errors.Wrapf(ErrNotFound, "%q", idStr)
	}
	return "OK", nil
}
