package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "handrom-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestAssessmentHandler_Create(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	reqBody := createAssessmentRequest{
		PatientRef: "patient-42",
		Type:       "wrist",
		Notes:      "post-op week 3",
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var response assessmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.ID == "" {
		t.Error("expected non-empty ID in response")
	}
	if response.PatientRef != "patient-42" {
		t.Errorf("expected patient_ref 'patient-42', got %q", response.PatientRef)
	}
	if response.Type != "wrist" {
		t.Errorf("expected type 'wrist', got %q", response.Type)
	}
	if response.Status != string(store.StatusPending) {
		t.Errorf("expected status 'pending', got %q", response.Status)
	}
}

func TestAssessmentHandler_Create_Validation(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing patient reference",
			body: `{"type": "wrist"}`,
		},
		{
			name: "invalid assessment type",
			body: `{"patient_ref": "patient-1", "type": "elbow"}`,
		},
		{
			name: "invalid JSON",
			body: `{not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestAssessmentHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	for i, patient := range []string{"patient-1", "patient-2"} {
		a := &store.Assessment{
			ID:         string(rune('a' + i)),
			PatientRef: patient,
			Type:       rom.AssessFingers,
		}
		if err := s.Assessments().Create(a); err != nil {
			t.Fatalf("failed to create assessment: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listAssessmentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Assessments) != 2 {
		t.Errorf("expected 2 assessments, got %d", len(response.Assessments))
	}

	// Filtered by patient
	req = httptest.NewRequest(http.MethodGet, "/api/assessments?patient=patient-2", nil)
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Assessments) != 1 {
		t.Fatalf("expected 1 assessment for patient-2, got %d", len(response.Assessments))
	}
	if response.Assessments[0].PatientRef != "patient-2" {
		t.Errorf("unexpected patient %q in filtered list", response.Assessments[0].PatientRef)
	}
}

func TestAssessmentHandler_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/missing", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAssessmentHandler_Update(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	a := &store.Assessment{ID: "test-1", PatientRef: "patient-1", Type: rom.AssessThumb}
	if err := s.Assessments().Create(a); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	body := []byte(`{"status": "recording", "notes": "capture started"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/assessments/test-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var response assessmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "recording" {
		t.Errorf("expected status 'recording', got %q", response.Status)
	}
	if response.Notes != "capture started" {
		t.Errorf("expected updated notes, got %q", response.Notes)
	}
}

func TestAssessmentHandler_Update_InvalidStatus(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	a := &store.Assessment{ID: "test-1", PatientRef: "patient-1", Type: rom.AssessThumb}
	if err := s.Assessments().Create(a); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	body := []byte(`{"status": "archived"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/assessments/test-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAssessmentHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	a := &store.Assessment{ID: "test-1", PatientRef: "patient-1", Type: rom.AssessFingers}
	if err := s.Assessments().Create(a); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/assessments/test-1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/assessments/test-1", nil)
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d deleting twice, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAssessmentHandler_GetResult(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	a := &store.Assessment{ID: "test-1", PatientRef: "patient-1", Type: rom.AssessWrist}
	if err := s.Assessments().Create(a); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	result := rom.SessionRomResult{
		PerSegment: map[rom.Segment]rom.SegmentRom{
			rom.SegWrist: {MaxFlexion: 48, MaxExtension: 47, TotalRom: 95},
		},
		QualityScore: 92,
		FramesTotal:  300,
		Laterality:   rom.LateralityRight,
	}
	if err := s.Assessments().SaveResult("test-1", result); err != nil {
		t.Fatalf("failed to save result: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/test-1/result", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var stored rom.SessionRomResult
	if err := json.NewDecoder(rec.Body).Decode(&stored); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stored.QualityScore != 92 {
		t.Errorf("expected quality 92, got %d", stored.QualityScore)
	}
	if stored.PerSegment[rom.SegWrist].TotalRom != 95 {
		t.Errorf("expected wrist total ROM 95, got %f", stored.PerSegment[rom.SegWrist].TotalRom)
	}
}

func TestAssessmentHandler_GetResult_NotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	a := &store.Assessment{ID: "test-1", PatientRef: "patient-1", Type: rom.AssessWrist}
	if err := s.Assessments().Create(a); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	// Assessment exists but has no stored result yet.
	req := httptest.NewRequest(http.MethodGet, "/api/assessments/test-1/result", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAssessmentHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewAssessmentHandler(s)

	req := httptest.NewRequest(http.MethodPatch, "/api/assessments", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
