package publish

import (
	"context"
	"time"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/telemetry"
)

// dispatchTimeout bounds how long one Publish attempt may take before
// it's abandoned. Publishing is fire-and-forget: the Controller never
// waits on it and a slow consumer never back-pressures detection.
const dispatchTimeout = time.Second

// Transport delivers one already-built envelope. WS and HTTP transports
// both implement it.
type Transport interface {
	Send(ctx context.Context, e envelope) error
	Close() error
}

// Publisher fires anomalies at a Transport from detached goroutines.
type Publisher struct {
	transport Transport
}

// NewPublisher wraps a Transport.
func NewPublisher(t Transport) *Publisher {
	return &Publisher{transport: t}
}

// Publish builds the envelope for a and sends it in its own goroutine,
// bounded by dispatchTimeout. Failures are logged at warning level through
// telemetry.RateLimitError (at most once a minute, with a count of the
// ones in between) and otherwise swallowed — SPEC_FULL.md §4.6 treats
// delivery as best-effort.
func (p *Publisher) Publish(a anomaly.Anomaly) {
	e := buildEnvelope(a)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := p.transport.Send(ctx, e); err != nil {
			telemetry.RateLimitError("publish.send", err)
		}
	}()
}

// Close releases the underlying transport's resources (e.g. a WebSocket
// connection).
func (p *Publisher) Close() error {
	return p.transport.Close()
}
