package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/clinometric/handrom/internal/capture"
	"github.com/clinometric/handrom/internal/detector"
	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// capturedFrames records everything published during a recording.
type capturedFrames struct {
	results []*rom.FrameResult
}

func (c *capturedFrames) Publish(assessmentID string, result *rom.FrameResult) {
	c.results = append(c.results, result)
}

func TestApp_StartRecording_UnknownAssessment(t *testing.T) {
	s := newTestStore(t)

	a := New(Config{Store: s})
	a.SetCamera(capture.NewMockCamera(nil, false))
	a.SetDetector(detector.NewMockDetector())
	defer a.Stop()

	err := a.StartRecording("missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApp_StopWithoutRecording(t *testing.T) {
	s := newTestStore(t)

	a := New(Config{Store: s})
	a.SetCamera(capture.NewMockCamera(nil, false))
	a.SetDetector(detector.NewMockDetector())
	defer a.Stop()

	if _, err := a.StopRecording(); !errors.Is(err, ErrNoRecording) {
		t.Errorf("expected ErrNoRecording, got %v", err)
	}
}

func TestApp_OneRecordingAtATime(t *testing.T) {
	s := newTestStore(t)

	if err := s.Assessments().Create(&store.Assessment{
		ID: "a-1", PatientRef: "patient-1", Type: rom.AssessFingers,
	}); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	a := New(Config{Store: s})
	a.SetCamera(capture.NewMockCamera(nil, false))
	a.SetDetector(detector.NewMockDetector())
	defer a.Stop()

	if err := a.StartRecording("a-1"); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if !a.Recording() {
		t.Error("Recording() should report true while active")
	}

	if err := a.StartRecording("a-1"); !errors.Is(err, ErrRecordingInProgress) {
		t.Errorf("expected ErrRecordingInProgress, got %v", err)
	}

	if _, err := a.StopRecording(); err != nil {
		t.Errorf("StopRecording() error = %v", err)
	}
	if a.Recording() {
		t.Error("Recording() should report false after stop")
	}
}

func TestApp_RecordingPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)

	if err := s.Assessments().Create(&store.Assessment{
		ID: "a-1", PatientRef: "patient-1", Type: rom.AssessFingers,
	}); err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}

	// Identical black frames keep the steadiness gate happy.
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()
	camera := capture.NewMockCamera([]*gocv.Mat{&mat}, true)

	mock := detector.NewMockDetector()
	mock.SetFrames([]*detector.LandmarkFrame{
		detector.NeutralFrame(0),
		detector.NeutralFrame(33),
		detector.NeutralFrame(66),
	}, true)

	published := &capturedFrames{}

	a := New(Config{Store: s, SettleFrames: 1})
	a.SetCamera(camera)
	a.SetDetector(mock)
	a.SetPublisher(published)
	defer a.Stop()

	if err := a.StartRecording("a-1"); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	// The assessment flips to recording while the capture runs.
	assessment, err := s.Assessments().GetByID("a-1")
	if err != nil {
		t.Fatalf("failed to get assessment: %v", err)
	}
	if assessment.Status != store.StatusRecording {
		t.Errorf("status = %q, want recording", assessment.Status)
	}

	// Let the pipeline settle and measure for a while.
	time.Sleep(500 * time.Millisecond)

	result, err := a.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}

	if result.FramesTotal == 0 {
		t.Fatal("expected the session to process frames")
	}
	if result.Laterality != rom.LateralityRight {
		t.Errorf("laterality = %q, want right for the neutral fixture", result.Laterality)
	}
	if len(published.results) == 0 {
		t.Error("expected per-frame results published to live viewers")
	}

	// The result is stored and the assessment completed.
	assessment, err = s.Assessments().GetByID("a-1")
	if err != nil {
		t.Fatalf("failed to get assessment: %v", err)
	}
	if assessment.Status != store.StatusCompleted {
		t.Errorf("status = %q, want completed after stop", assessment.Status)
	}

	stored, err := s.Assessments().GetResult("a-1")
	if err != nil {
		t.Fatalf("failed to get stored result: %v", err)
	}
	if stored.FramesTotal != result.FramesTotal {
		t.Errorf("stored frames total = %d, want %d", stored.FramesTotal, result.FramesTotal)
	}
}
