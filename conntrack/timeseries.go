package conntrack

import (
	"strings"
	"time"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// openingBurstSize is N from spec.md §3/§4.4: the number of opening
// samples kept in full detail (time offset, length, direction) for PEP
// computation.
const openingBurstSize = 20

// bucketWidth is the width of a per-minute Bucket.
const bucketWidth = 60 * time.Second

// Bucket accumulates byte totals, split by direction, for one 60s slice of
// a flow's life. Samples of the opening burst are counted in the buckets
// too; buckets are not limited to what comes after the burst.
type Bucket struct {
	ForwardBytes int64
	ReverseBytes int64
	ForwardCount int
	ReverseCount int
}

func (b *Bucket) add(dir flowtypes.SampleDirection, length int) {
	if dir == flowtypes.Forward {
		b.ForwardBytes += int64(length)
		b.ForwardCount++
	} else {
		b.ReverseBytes += int64(length)
		b.ReverseCount++
	}
}

// TimeSeries holds a flow's opening-burst samples plus the per-minute
// buckets summarizing every sample of the flow, burst included. Invariant:
// len(Time) == len(Value) == len(Direction) <= openingBurstSize.
type TimeSeries struct {
	Time      []time.Duration
	Value     []int
	Direction []flowtypes.SampleDirection

	Buckets []Bucket
}

// Add records one packet's (offset-from-flow-creation, length, direction)
// sample. The opening-burst arrays stop growing at openingBurstSize, but
// every sample — burst or not — is folded into the appropriate Bucket, so
// long-lived flows still contribute an accurate total.
func (ts *TimeSeries) Add(offset time.Duration, length int, dir flowtypes.SampleDirection) {
	if len(ts.Time) < openingBurstSize {
		ts.Time = append(ts.Time, offset)
		ts.Value = append(ts.Value, length)
		ts.Direction = append(ts.Direction, dir)
	}

	for time.Duration(len(ts.Buckets))*bucketWidth <= offset {
		ts.Buckets = append(ts.Buckets, Bucket{})
	}
	ts.Buckets[len(ts.Buckets)-1].add(dir, length)
}

// PEP is the Packet Exchange Pattern: the concatenation of the opening
// burst's direction indices, e.g. "00011".
func (ts *TimeSeries) PEP() string {
	var b strings.Builder
	b.Grow(len(ts.Direction))
	for _, d := range ts.Direction {
		if d == flowtypes.Forward {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}

// ForwardReverseTotals sums byte counts across both the opening burst and
// the buckets, used when a completed flow is folded into an AUDRecord.
func (ts *TimeSeries) ForwardReverseTotals() (forward, reverse int64) {
	for _, bucket := range ts.Buckets {
		forward += bucket.ForwardBytes
		reverse += bucket.ReverseBytes
	}
	return forward, reverse
}

// SampleCount is the number of packets ever folded into this series
// (opening burst + bucketed), used for AUDRecord summaries.
func (ts *TimeSeries) SampleCount() int {
	n := 0
	for _, bucket := range ts.Buckets {
		n += bucket.ForwardCount + bucket.ReverseCount
	}
	return n
}
