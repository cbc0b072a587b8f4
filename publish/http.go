package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// HTTPTransport delivers envelopes as a JSON POST, for deployments that
// front their message bus with a plain HTTP ingestion endpoint instead of
// a WebSocket. Grounded on rest/base_client.go's client shape, trimmed to
// the one POST-and-discard-body operation this sensor needs.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport posts envelopes to url using client, or
// http.DefaultClient if client is nil.
func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{url: url, client: client}
}

func (h *HTTPTransport) Send(ctx context.Context, e envelope) error {
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to marshal anomaly envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build publish request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to POST anomaly envelope")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("publish endpoint returned %s", resp.Status)
	}
	return nil
}

func (h *HTTPTransport) Close() error {
	return nil
}
