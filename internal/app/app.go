// Package app orchestrates assessment recordings: camera capture,
// landmark detection, the measurement session and result storage.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/clinometric/handrom/internal/capture"
	"github.com/clinometric/handrom/internal/detector"
	"github.com/clinometric/handrom/internal/rom"
	"github.com/clinometric/handrom/internal/store"
)

// ErrRecordingInProgress is returned when a recording is started while
// another one is still running.
var ErrRecordingInProgress = errors.New("a recording is already in progress")

// ErrNoRecording is returned when stopping without an active recording.
var ErrNoRecording = errors.New("no recording in progress")

// FramePublisher receives per-frame measurement results for live
// display while a recording runs.
type FramePublisher interface {
	Publish(assessmentID string, result *rom.FrameResult)
}

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	CameraID int

	// SteadyThresh is the percent pixel change still counted as
	// holding still; SettleFrames is the run length required before
	// measurement begins. Zero values use the capture defaults.
	SteadyThresh float64
	SettleFrames int

	// Rom overrides the measurement thresholds. The zero value means
	// the calibrated defaults.
	Rom rom.Config
}

// App runs one recording at a time against a camera and detector.
type App struct {
	config    Config
	camera    capture.Camera
	gate      *capture.SteadinessGate
	detector  detector.Detector
	romCfg    rom.Config
	publisher FramePublisher

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	current *recording
}

type recording struct {
	assessmentID string
	session      *rom.Session
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	romCfg := config.Rom
	if romCfg == (rom.Config{}) {
		romCfg = rom.DefaultConfig()
	}

	a := &App{
		config: config,
		camera: capture.NewCamera(config.CameraID),
		gate:   capture.NewSteadinessGate(config.SteadyThresh, config.SettleFrames),
		romCfg: romCfg,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe landmark detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector sets the landmark detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetPublisher sets the live frame-result publisher.
func (a *App) SetPublisher(p FramePublisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publisher = p
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.camera
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector
}

// Recording reports whether a recording is currently running.
func (a *App) Recording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// StartRecording begins capturing frames for the given assessment. The
// measurement session starts once the patient holds still long enough
// to satisfy the steadiness gate.
func (a *App) StartRecording(assessmentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		return ErrRecordingInProgress
	}
	if a.config.Store == nil {
		return errors.New("no store configured")
	}

	assessment, err := a.config.Store.Assessments().GetByID(assessmentID)
	if err != nil {
		return fmt.Errorf("load assessment: %w", err)
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(capture.DefaultFPS)

	assessment.Status = store.StatusRecording
	if err := a.config.Store.Assessments().Update(assessment); err != nil {
		a.camera.Close()
		return fmt.Errorf("mark assessment recording: %w", err)
	}

	a.gate.Reset()
	a.current = &recording{
		assessmentID: assessmentID,
		session:      rom.NewSession(a.romCfg, assessment.Type),
	}
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})

	go a.runRecording(a.current, a.stopCh, a.doneCh)

	log.Printf("Recording started for assessment %s (%s)", assessmentID, assessment.Type)
	return nil
}

// StopRecording ends the active recording, stores the session result
// and returns it.
func (a *App) StopRecording() (*rom.SessionRomResult, error) {
	a.mu.Lock()

	if a.current == nil {
		a.mu.Unlock()
		return nil, ErrNoRecording
	}

	rec := a.current
	stopCh, doneCh := a.stopCh, a.doneCh
	a.current = nil
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	result := rec.session.Finalize()

	if err := a.config.Store.Assessments().SaveResult(rec.assessmentID, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	log.Printf("Recording finished for assessment %s: %d/%d frames accepted, quality %d",
		rec.assessmentID, result.FramesAccepted, result.FramesTotal, result.QualityScore)
	return &result, nil
}

// Stop aborts any active recording without saving and releases the
// camera, steadiness gate and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.current = nil
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
		log.Println("Recording aborted")
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.gate.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
}
