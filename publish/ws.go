package publish

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// DefaultWSEndpoint is where this sensor publishes to when no endpoint is
// configured — the local message bus a SIFIS-Home hub runs.
const DefaultWSEndpoint = "ws://localhost:3000/ws"

// WSTransport delivers envelopes as text frames over a single persistent
// WebSocket connection, reconnecting lazily on the next Send after a
// failure rather than maintaining a background retry loop — SPEC_FULL.md
// §4.6 rules out a retrying client.
type WSTransport struct {
	endpoint string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSTransport returns a transport that dials endpoint lazily, on the
// first Send.
func NewWSTransport(endpoint string) *WSTransport {
	return &WSTransport{endpoint: endpoint}
}

func (w *WSTransport) Send(ctx context.Context, e envelope) error {
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to marshal anomaly envelope")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		dialer := websocket.Dialer{}
		conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
		if err != nil {
			return errors.Wrapf(err, "failed to dial %s", w.endpoint)
		}
		w.conn = conn
	}

	if deadline, ok := ctx.Deadline(); ok {
		w.conn.SetWriteDeadline(deadline)
	}

	if err := w.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		w.conn.Close()
		w.conn = nil
		return errors.Wrap(err, "failed to write WS message")
	}
	return nil
}

func (w *WSTransport) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
