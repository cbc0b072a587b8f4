// Package telemetry provides rate-limited counting of recurring
// operational errors, so a noisy failure mode logs once per window
// instead of flooding stderr. Adapted from the teacher's telemetry
// package, with the analytics-upload half (Amplitude client, user/team
// ID resolution) removed: nothing in this sensor phones home usage
// events, so only the RateLimitError half survives.
package telemetry

import (
	"sync"
	"time"

	"github.com/sifis-home/aud-sensor/printer"
)

type eventRecord struct {
	// Count is the number of occurrences since the last one was logged.
	Count int

	// NextLog is the earliest time the next occurrence may be logged.
	NextLog time.Time
}

var rateLimitMap sync.Map

const rateLimitDuration = 60 * time.Second

// RateLimitError logs an error in a given operation context, but at
// most once per rateLimitDuration for that context; occurrences in
// between are counted and folded into the next log line.
func RateLimitError(inContext string, e error) {
	newRecord := eventRecord{
		Count:   0,
		NextLog: time.Now().Add(rateLimitDuration),
	}
	existing, present := rateLimitMap.LoadOrStore(inContext, newRecord)

	count := 1
	if present {
		record := existing.(eventRecord)

		if record.NextLog.After(time.Now()) {
			// This is a data race but not worth worrying about (by using
			// a mutex); sometimes the count will be low.
			record.Count += 1
			rateLimitMap.Store(inContext, record)
			return
		}

		count = record.Count + 1
		rateLimitMap.Store(inContext, newRecord)
	}

	printer.Warningf("%s: %v (x%d since last report)\n", inContext, e, count)
}
