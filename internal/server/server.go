// Package server is the HTTP surface of the serve daemon: Prometheus
// metrics, a liveness probe and the last rollover outcome.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/rollover"
	"github.com/julianstephens/habitual/internal/utils"
)

const shutdownTimeout = 5 * time.Second

// RolloverStatus reports the most recent rollover.
type RolloverStatus interface {
	Last() (rollover.LastRun, bool)
}

type Server struct {
	status RolloverStatus
	srv    *http.Server
}

func New(addr string, status RolloverStatus) *Server {
	s := &Server{status: status}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/rollover", s.handleRollover).Methods(http.MethodGet)
	return router
}

// Start serves in the background. onFail runs if the listener dies.
func (s *Server) Start(onFail func()) {
	go func() {
		logger.Info("Serving HTTP", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if onFail != nil {
				onFail()
			}
		}
	}()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rolloverResponse struct {
	Day      string    `json:"day"`
	Missed   int       `json:"missed"`
	Created  int       `json:"created"`
	Finished time.Time `json:"finished"`
	Error    string    `json:"error,omitempty"`
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	run, ok := s.status.Last()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no rollover has run yet"})
		return
	}

	resp := rolloverResponse{
		Day:      utils.FormatDay(run.Result.Day),
		Missed:   run.Result.Missed,
		Created:  run.Result.Created,
		Finished: run.Finished.UTC(),
	}
	code := http.StatusOK
	if run.Err != nil {
		resp.Error = run.Err.Error()
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
