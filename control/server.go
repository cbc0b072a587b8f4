package control

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sifis-home/aud-sensor/anomaly"
)

// Status is the /status route's payload.
type Status struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	TrackedFlows   int     `json:"tracked_flows"`
	ACLKeys        int     `json:"acl_keys"`
	QueueDepth     int     `json:"queue_depth"`
	PacketsDropped uint64  `json:"packets_dropped"`
	AnomalyCount   int     `json:"anomaly_count"`
}

// StatusProvider answers /status. The Controller is the only real
// implementation; tests supply a stub.
type StatusProvider interface {
	Status() Status
}

// DiagProvider answers the /dev/* introspection routes. Each method
// returns whatever JSON-marshalable value is appropriate; control never
// interprets it.
type DiagProvider interface {
	Diag() interface{}
	AUDUpdate() interface{}
	ConnList() interface{}
}

// BenignMarker answers /mark-benign/<uuid>.
type BenignMarker interface {
	MarkBenign(uuidStr string) (string, error)
}

// TickForcer lets /dev/aud-update force a Controller tick instead of
// waiting out the real tick interval, per spec.md §6's route table.
type TickForcer interface {
	ForceTick()
}

// LearningToggle answers /dev/force-stop-learning: once called, the
// AUDRegistry stops allocating new Records (and therefore stops raising
// NovelFlow), freezing the baseline for inspection.
type LearningToggle interface {
	StopLearning()
}

// LogProvider answers /log with the Controller's bounded log tail.
type LogProvider interface {
	LogTail() []string
}

// Server wires every route to its provider. Any provider may be nil; the
// corresponding route then answers 501 Not Implemented.
type Server struct {
	Status   StatusProvider
	Diag     DiagProvider
	Benign   BenignMarker
	Ticker   TickForcer
	Learning LearningToggle
	Log      LogProvider

	router *mux.Router
}

// NewServer builds the router for the given providers.
func NewServer(s Server) *Server {
	srv := &s
	srv.router = mux.NewRouter().StrictSlash(true)

	srv.router.Handle("/status", asHandler(srv.handleStatus)).Methods(http.MethodGet)
	srv.router.Handle("/log", asHandler(srv.handleLog)).Methods(http.MethodGet)
	srv.router.Handle("/mark-benign/{uuid}", asHandler(srv.handleMarkBenign)).Methods(http.MethodGet, http.MethodPost)
	srv.router.Handle("/dev/diag", asHandler(srv.handleDiag)).Methods(http.MethodGet)
	srv.router.Handle("/dev/aud-update", asHandler(srv.handleAUDUpdate)).Methods(http.MethodGet)
	srv.router.Handle("/dev/connlist", asHandler(srv.handleConnList)).Methods(http.MethodGet)
	srv.router.Handle("/dev/force-stop-learning", asHandler(srv.handleStopLearning)).Methods(http.MethodGet)

	return srv
}

// Handler returns the http.Handler to mount (or pass to
// http.ListenAndServe).
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleStatus(*http.Request) HTTPResponse {
	if s.Status == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	return NewHTTPResponse(http.StatusOK, s.Status.Status())
}

func (s *Server) handleLog(*http.Request) HTTPResponse {
	if s.Log == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	return NewHTTPResponse(http.StatusOK, s.Log.LogTail())
}

func (s *Server) handleMarkBenign(r *http.Request) HTTPResponse {
	if s.Benign == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	id := mux.Vars(r)["uuid"]
	status, err := s.Benign.MarkBenign(id)
	if err != nil {
		if errors.Is(err, anomaly.ErrMalformedUUID) {
			return NewHTTPError(err, http.StatusBadRequest, "malformed anomaly UUID")
		}
		return NewHTTPError(err, http.StatusNotFound, "anomaly not found")
	}
	return NewHTTPResponse(http.StatusOK, struct {
		Status string `json:"status"`
	}{status})
}

func (s *Server) handleDiag(*http.Request) HTTPResponse {
	if s.Diag == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	return NewHTTPResponse(http.StatusOK, s.Diag.Diag())
}

// handleAUDUpdate forces a Controller tick, per spec.md §6's "Force a
// Controller tick" purpose for this route, then reports the registry's
// current ACL keys. Forcing is fire-and-forget, same as the Controller's
// own forceTick channel, so the reported keys may still reflect the tick
// before this one.
func (s *Server) handleAUDUpdate(*http.Request) HTTPResponse {
	if s.Ticker != nil {
		s.Ticker.ForceTick()
	}
	if s.Diag == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	return NewHTTPResponse(http.StatusOK, s.Diag.AUDUpdate())
}

func (s *Server) handleConnList(*http.Request) HTTPResponse {
	if s.Diag == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	return NewHTTPResponse(http.StatusOK, s.Diag.ConnList())
}

func (s *Server) handleStopLearning(*http.Request) HTTPResponse {
	if s.Learning == nil {
		return NewHTTPResponse(http.StatusNotImplemented, nil)
	}
	s.Learning.StopLearning()
	return NewHTTPResponse(http.StatusOK, nil)
}
