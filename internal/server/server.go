// Package server is the demo bridge: it runs simulations on request and
// streams the narrated steps to websocket clients while they happen.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cardsim/internal/event"
	"cardsim/internal/simulation"
	"cardsim/pkg/config"
	"cardsim/pkg/logger"
)

type Server struct {
	cfg      *config.Config
	logger   logger.Logger
	hub      *Hub
	upgrader websocket.Upgrader

	// runMu serializes simulation runs; the participants are rebuilt per run
	// but the output directory and event stream are shared.
	runMu sync.Mutex
}

func New(cfg *config.Config, log logger.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: log,
		hub:    NewHub(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/simulation/run", s.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/ws/events", s.handleEvents).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleRun executes one full simulation synchronously and returns its
// outcome. A second request while a run is in flight gets 409.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runMu.TryLock() {
		s.respondJSON(w, http.StatusConflict, map[string]string{"error": "a simulation is already running"})
		return
	}
	defer s.runMu.Unlock()

	notifier := event.Multi(
		event.NewFunc(s.hub.Broadcast),
		event.NewLog(s.logger),
	)

	sim, err := simulation.New(s.cfg.Simulation, notifier, s.logger, nil)
	if err != nil {
		s.logger.Error("failed to build simulation", map[string]interface{}{"error": err.Error()})
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	outcome := sim.Run(r.Context())

	status := http.StatusOK
	if outcome.Status == simulation.StatusFailed {
		status = http.StatusUnprocessableEntity
	}
	s.respondJSON(w, status, outcome)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	s.hub.Add(conn)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}
