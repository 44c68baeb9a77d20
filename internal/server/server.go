// Package server provides the HTTP server for the assessment service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinometric/handrom/internal/capture"
	"github.com/clinometric/handrom/internal/server/api"
	"github.com/clinometric/handrom/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Recorder  Recorder
}

// Server represents the HTTP server for the assessment service.
type Server struct {
	config Config
	mux    *http.ServeMux
	live   *LiveHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		live:   NewLiveHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Live returns the live measurement broadcaster; the recording
// pipeline publishes per-frame results into it.
func (s *Server) Live() *LiveHandler {
	return s.live
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register assessment API handler if Store is configured
	if s.config.Store != nil {
		assessmentHandler := api.NewAssessmentHandler(s.config.Store)
		s.mux.Handle("/api/assessments", assessmentHandler)
		s.mux.Handle("/api/assessments/", assessmentHandler)
	}

	s.mux.Handle("/api/live", s.live)

	// Register recording control if a Recorder is configured
	if s.config.Recorder != nil {
		recordHandler := NewRecordHandler(s.config.Recorder)
		s.mux.Handle("/api/recording", recordHandler)
		s.mux.Handle("/api/recording/", recordHandler)
	}

	// Register camera preview endpoint if Camera is configured
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
