package app

import (
	"log"
	"time"
)

// runRecording is the capture loop of one recording. It reads frames at
// the camera rate, holds measurement back until the steadiness gate
// opens, then feeds every frame through the detector into the session.
//
// Pipeline logic:
//  1. Read a frame from the camera
//  2. Until the patient has held still long enough, feed the
//     steadiness gate and discard the frame
//  3. Run landmark detection
//  4. Process the landmark frame through the measurement session
//  5. Publish the per-frame result for live viewers
//
// Tracking-quality problems never abort the loop; the session degrades
// by skipping or rejecting frames and the loop keeps going until
// stopped.
func (a *App) runRecording(rec *recording, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	a.mu.Lock()
	camera, det, pub := a.camera, a.detector, a.publisher
	a.mu.Unlock()

	fps := camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if !a.gate.Settled() {
				a.gate.Observe(frame)
				frame.Close()
				continue
			}

			landmarks, err := det.Detect(frame)
			frame.Close()
			if err != nil {
				log.Printf("Error detecting landmarks: %v", err)
				continue
			}
			if landmarks == nil {
				continue
			}

			result, err := rec.session.ProcessFrame(landmarks)
			if err != nil {
				log.Printf("Error processing frame: %v", err)
				continue
			}

			if pub != nil {
				pub.Publish(rec.assessmentID, result)
			}
		}
	}
}
