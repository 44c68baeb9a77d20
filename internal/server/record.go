package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/store"
)

// Recorder controls the capture pipeline. One recording runs at a
// time; stopping returns the finalized session result.
type Recorder interface {
	StartRecording(assessmentID string) error
	StopRecording() (*rom.SessionRomResult, error)
	Recording() bool
}

// RecordHandler exposes recording control over HTTP.
type RecordHandler struct {
	recorder Recorder
}

// NewRecordHandler creates a new RecordHandler with the given recorder.
func NewRecordHandler(r Recorder) *RecordHandler {
	return &RecordHandler{recorder: r}
}

type startRecordingRequest struct {
	AssessmentID string `json:"assessment_id"`
}

type recordingStatusResponse struct {
	Recording bool `json:"recording"`
}

func writeRecordError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ServeHTTP routes /api/recording requests.
func (h *RecordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/recording":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w)
	case "/api/recording/start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "/api/recording/stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w)
	default:
		http.NotFound(w, r)
	}
}

func (h *RecordHandler) status(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recordingStatusResponse{Recording: h.recorder.Recording()})
}

func (h *RecordHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRecordError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.AssessmentID == "" {
		writeRecordError(w, http.StatusBadRequest, "Assessment ID is required")
		return
	}

	if err := h.recorder.StartRecording(req.AssessmentID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeRecordError(w, http.StatusNotFound, "Assessment not found")
		default:
			writeRecordError(w, http.StatusConflict, err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *RecordHandler) stop(w http.ResponseWriter) {
	result, err := h.recorder.StopRecording()
	if err != nil {
		writeRecordError(w, http.StatusConflict, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
