// Package api provides HTTP API handlers for the assessment service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/store"
)

// AssessmentHandler handles HTTP requests for assessment resources.
type AssessmentHandler struct {
	store *store.Store
}

// NewAssessmentHandler creates a new AssessmentHandler with the given store.
func NewAssessmentHandler(s *store.Store) *AssessmentHandler {
	return &AssessmentHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *AssessmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/assessments, /api/assessments/{id} and
	// /api/assessments/{id}/result
	path := strings.TrimPrefix(r.URL.Path, "/api/assessments")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/assessments
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/result"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getResult(w, r, id)
		return
	}

	// Item endpoint: /api/assessments/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createAssessmentRequest struct {
	PatientRef string `json:"patient_ref"`
	Type       string `json:"type"`
	Notes      string `json:"notes"`
}

type updateAssessmentRequest struct {
	PatientRef string `json:"patient_ref"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

type assessmentResponse struct {
	ID         string `json:"id"`
	PatientRef string `json:"patient_ref"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listAssessmentsResponse struct {
	Assessments []assessmentResponse `json:"assessments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Assessment to an assessmentResponse.
func toResponse(a *store.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:         a.ID,
		PatientRef: a.PatientRef,
		Type:       string(a.Type),
		Status:     string(a.Status),
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func validAssessmentType(t rom.AssessmentType) bool {
	switch t {
	case rom.AssessFingers, rom.AssessWrist, rom.AssessThumb:
		return true
	}
	return false
}

// list handles GET /api/assessments, optionally filtered by ?patient=.
func (h *AssessmentHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		assessments []*store.Assessment
		err         error
	)

	if patient := r.URL.Query().Get("patient"); patient != "" {
		assessments, err = h.store.Assessments().ListByPatient(patient)
	} else {
		assessments, err = h.store.Assessments().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assessments")
		return
	}

	response := listAssessmentsResponse{
		Assessments: make([]assessmentResponse, 0, len(assessments)),
	}

	for _, a := range assessments {
		response.Assessments = append(response.Assessments, toResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/assessments/{id} and returns a single assessment.
func (h *AssessmentHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	assessment, err := h.store.Assessments().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get assessment")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(assessment))
}

// getResult handles GET /api/assessments/{id}/result.
func (h *AssessmentHandler) getResult(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.store.Assessments().GetResult(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// create handles POST /api/assessments and creates a new assessment.
func (h *AssessmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PatientRef == "" {
		writeError(w, http.StatusBadRequest, "Patient reference is required")
		return
	}

	assessmentType := rom.AssessmentType(req.Type)
	if assessmentType == "" {
		assessmentType = rom.AssessFingers
	}
	if !validAssessmentType(assessmentType) {
		writeError(w, http.StatusBadRequest, "Invalid assessment type")
		return
	}

	assessment := &store.Assessment{
		ID:         uuid.New().String(),
		PatientRef: req.PatientRef,
		Type:       assessmentType,
		Notes:      req.Notes,
	}

	if err := h.store.Assessments().Create(assessment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create assessment")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(assessment))
}

// update handles PUT /api/assessments/{id} and updates an existing assessment.
func (h *AssessmentHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	assessment, err := h.store.Assessments().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get assessment")
		return
	}

	var req updateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PatientRef != "" {
		assessment.PatientRef = req.PatientRef
	}
	if req.Status != "" {
		status := store.AssessmentStatus(req.Status)
		switch status {
		case store.StatusPending, store.StatusRecording, store.StatusCompleted:
			assessment.Status = status
		default:
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
	}
	if req.Notes != "" {
		assessment.Notes = req.Notes
	}

	if err := h.store.Assessments().Update(assessment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update assessment")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(assessment))
}

// delete handles DELETE /api/assessments/{id} and removes an assessment.
func (h *AssessmentHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Assessments().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete assessment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
