// Package control exposes the sensor's runtime surface over plain HTTP:
// status, the in-memory log tail, mark-benign, and the /dev/* diagnostic
// routes SPEC_FULL.md §6 defines. It depends only on small interfaces
// (StatusProvider, DiagProvider, BenignMarker, TickForcer,
// LearningToggle) so it never imports conntrack/aud/anomaly directly —
// the Controller is the only thing that wires a concrete pipeline to it.
//
// Grounded on the teacher's daemon package: daemon/http.go's
// HTTPResponse/HTTPError envelope and daemon/run.go's httpHandler
// adapter + mux.NewRouter route registration.
package control

import (
	"encoding/json"
	"net/http"

	"github.com/sifis-home/aud-sensor/printer"
)

// HTTPResponse is the uniform shape every route returns, mirroring the
// teacher's daemon.HTTPResponse (itself an alias of rest.HTTPError).
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

func (r HTTPResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.StatusCode)
	w.Write(r.Body)
}

// NewHTTPResponse JSON-encodes body into a response with the given
// status. A marshal failure degrades to a 500 with no body, logged at
// error level, rather than panicking the handler.
func NewHTTPResponse(status int, body interface{}) HTTPResponse {
	if body == nil {
		return HTTPResponse{StatusCode: status}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		printer.Errorf("control: failed to marshal response body: %v\n", err)
		return HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return HTTPResponse{StatusCode: status, Body: encoded}
}

// NewHTTPError builds an error response with a message and optional
// error detail.
func NewHTTPError(err error, status int, message string) HTTPResponse {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return NewHTTPResponse(status, struct {
		Message string `json:"message,omitempty"`
		Detail  string `json:"detail,omitempty"`
	}{Message: message, Detail: detail})
}

type requestHandler func(*http.Request) HTTPResponse

func asHandler(h requestHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(r).Write(w)
	})
}
