// Package api exposes the diagnostics request/response operations over
// HTTP. Routes stay thin: each one builds a typed request and hands it to
// the shared dispatcher.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"codeberg.org/mutker/kscand/internal/logger"
	"codeberg.org/mutker/kscand/internal/rpc"
)

// Server is the management API server.
type Server struct {
	dispatcher *rpc.Dispatcher
	router     *chi.Mux
	server     *http.Server
}

// NewServer creates the management API server on the given address.
func NewServer(addr string, dispatcher *rpc.Dispatcher) *Server {
	s := &Server{
		dispatcher: dispatcher,
		router:     chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Second))

	s.router.Route("/api/v1", func(r chi.Router) {
		// Generic dispatch endpoint mirroring the wire protocol: one
		// request union in, one tagged response out.
		r.Post("/call", s.handleCall)

		r.Post("/monitoring/resume", s.handleResume)
		r.Post("/monitoring/fresh", s.handleStartFresh)
		r.Post("/monitoring/stop", s.handleStop)
		r.Get("/state", s.handleState)
		r.Post("/clear", s.handleClear)
		r.Get("/config", s.handleKscanConfig)
		r.Get("/events", s.handleEvents)
		r.Post("/chattering", s.handleConfigureChattering)
		r.Get("/chattering/alerts", s.handleChatteringAlerts)
		r.Post("/gpio/{index}/test", s.handleTestGpioPin)
		r.Get("/matrix", s.handleKeyMatrix)
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe starts listening. Blocks until the server shuts down.
func (s *Server) ListenAndServe() error {
	logger.Info().Str("addr", s.server.Addr).Msg("Management API listening")
	return s.server.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req rpc.Request
	if resp, ok := decodeBody(r.Body, &req); !ok {
		writeResponse(w, resp)
		return
	}
	writeResponse(w, s.dispatcher.Dispatch(req))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	body := rpc.ResumeRequest{}
	if r.ContentLength != 0 {
		if resp, ok := decodeBody(r.Body, &body); !ok {
			writeResponse(w, resp)
			return
		}
	}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{Resume: &body}))
}

func (s *Server) handleStartFresh(w http.ResponseWriter, r *http.Request) {
	body := rpc.StartFreshRequest{}
	if r.ContentLength != 0 {
		if resp, ok := decodeBody(r.Body, &body); !ok {
			writeResponse(w, resp)
			return
		}
	}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{StartFresh: &body}))
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{StopMonitoring: &rpc.StopMonitoringRequest{}}))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{GetState: &rpc.GetStateRequest{}}))
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{ClearData: &rpc.ClearDataRequest{}}))
}

func (s *Server) handleKscanConfig(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{GetKscanConfig: &rpc.GetKscanConfigRequest{}}))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	req := rpc.GetEventsRequest{
		ClearBuffer: r.URL.Query().Get("clear") == "true",
	}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{GetEvents: &req}))
}

func (s *Server) handleConfigureChattering(w http.ResponseWriter, r *http.Request) {
	var body rpc.ConfigureChatteringRequest
	if resp, ok := decodeBody(r.Body, &body); !ok {
		writeResponse(w, resp)
		return
	}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{ConfigureChattering: &body}))
}

func (s *Server) handleChatteringAlerts(w http.ResponseWriter, r *http.Request) {
	req := rpc.GetChatteringAlertsRequest{
		ClearAlerts: r.URL.Query().Get("clear") == "true",
	}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{GetChatteringAlerts: &req}))
}

func (s *Server) handleTestGpioPin(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 32)
	if err != nil {
		writeResponse(w, rpc.ErrorResponsef("invalid gpio index: %v", err))
		return
	}
	req := rpc.TestGpioPinRequest{GpioIndex: uint32(index)}
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{TestGpioPin: &req}))
}

func (s *Server) handleKeyMatrix(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, s.dispatcher.Dispatch(rpc.Request{GetKeyMatrix: &rpc.GetKeyMatrixRequest{}}))
}

// decodeBody decodes a JSON request body. On failure it returns the error
// response to send and false; decode failures never reach the dispatcher.
func decodeBody(body io.Reader, v any) (rpc.Response, bool) {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		logger.Warn().Str("error", err.Error()).Msg("Failed to decode diagnostics request")
		return rpc.ErrorResponsef("failed to decode request: %v", err), false
	}
	return rpc.Response{}, true
}

func writeResponse(w http.ResponseWriter, resp rpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Kind == rpc.KindError {
		w.WriteHeader(http.StatusBadRequest)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Str("error", err.Error()).Msg("Failed to encode diagnostics response")
	}
}
