package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/clinometric/handrom/internal/app"
	"github.com/clinometric/handrom/internal/capture"
	"github.com/clinometric/handrom/internal/detector"
	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/server"
	"github.com/clinometric/handrom/internal/store"
)

func TestE2E_AssessmentWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := server.New(server.Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	var assessmentID string

	t.Run("CreateAssessment", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/assessments",
			"application/json",
			strings.NewReader(`{"patient_ref": "patient-7", "type": "fingers"}`),
		)
		if err != nil {
			t.Fatalf("create assessment error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected a generated assessment ID")
		}
		assessmentID = created.ID
	})

	t.Run("MeasureAndStore", func(t *testing.T) {
		// Drive a measurement session with a synthetic index-finger
		// flexion ramp and store its result.
		session := rom.NewSession(rom.DefaultConfig(), rom.AssessFingers)

		for i := 0; i <= 60; i++ {
			frame := detector.NeutralFrame(int64(i) * 33)
			frame.Hand = detector.FlexedIndexHandLandmarks(float64(i))

			if _, err := session.ProcessFrame(frame); err != nil {
				t.Fatalf("frame %d: %v", i, err)
			}
		}

		result := session.Finalize()
		if result.PerSegment[rom.SegIndexPIP].MaxFlexion < 55 {
			t.Fatalf("unexpected PIP flexion %f in synthetic ramp", result.PerSegment[rom.SegIndexPIP].MaxFlexion)
		}

		if err := s.Assessments().SaveResult(assessmentID, result); err != nil {
			t.Fatalf("SaveResult() error = %v", err)
		}
	})

	t.Run("FetchResultOverAPI", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/assessments/" + assessmentID + "/result")
		if err != nil {
			t.Fatalf("get result error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var result rom.SessionRomResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}

		if result.Laterality != rom.LateralityRight {
			t.Errorf("laterality = %q, want right", result.Laterality)
		}
		if result.PerSegment[rom.SegIndexPIP].MaxFlexion < 55 {
			t.Errorf("stored PIP flexion = %f, want the measured ramp", result.PerSegment[rom.SegIndexPIP].MaxFlexion)
		}
	})

	t.Run("AssessmentCompleted", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/assessments/" + assessmentID)
		if err != nil {
			t.Fatalf("get assessment error = %v", err)
		}
		defer resp.Body.Close()

		var a struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
			t.Fatalf("failed to decode assessment: %v", err)
		}
		if a.Status != string(store.StatusCompleted) {
			t.Errorf("status = %q, want completed", a.Status)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health check error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Error("health check failed after workflow")
		}
	})
}

func TestE2E_RecordingOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	if err := s.Assessments().Create(&store.Assessment{
		ID: "rec-1", PatientRef: "patient-9", Type: rom.AssessFingers,
	}); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	mock := detector.NewMockDetector()
	mock.SetFrames([]*detector.LandmarkFrame{detector.NeutralFrame(0)}, true)

	application := app.New(app.Config{Store: s, SettleFrames: 1})
	application.SetCamera(capture.NewMockCamera([]*gocv.Mat{&mat}, true))
	application.SetDetector(mock)
	defer application.Stop()

	srv := server.New(server.Config{Store: s, Recorder: application})
	application.SetPublisher(srv.Live())

	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	resp, err := client.Post(
		ts.URL+"/api/recording/start",
		"application/json",
		strings.NewReader(`{"assessment_id": "rec-1"}`),
	)
	if err != nil {
		t.Fatalf("start recording error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	time.Sleep(500 * time.Millisecond)

	resp, err = client.Post(ts.URL+"/api/recording/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("stop recording error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result rom.SessionRomResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.FramesTotal == 0 {
		t.Error("expected the recording to process frames")
	}
}
