package detector

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned when a frame violates the structural
// contract of the detection boundary (wrong landmark count). This is
// an upstream adapter bug, distinct from ordinary tracking noise.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// LandmarkFrame is one time-stamped observation from the detector.
// A frame is never mutated after creation. Hand or Pose may be nil
// when the detector lost the corresponding landmark set; that is a
// tracking-quality condition, not a structural error.
type LandmarkFrame struct {
	Timestamp        int64          `json:"timestamp"` // monotonic, ms
	Hand             *HandLandmarks `json:"hand,omitempty"`
	Pose             *PoseLandmarks `json:"pose,omitempty"`
	SourceConfidence float64        `json:"source_confidence"`
}

// Validate checks the structural contract: a present hand set must
// carry exactly 21 points and a present pose set exactly 33. Missing
// sets are allowed.
func (f *LandmarkFrame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrMalformedFrame)
	}
	if f.Hand != nil && len(f.Hand.Points) != NumHandLandmarks {
		return fmt.Errorf("%w: hand has %d landmarks, want %d",
			ErrMalformedFrame, len(f.Hand.Points), NumHandLandmarks)
	}
	if f.Pose != nil && len(f.Pose.Points) != NumPoseLandmarks {
		return fmt.Errorf("%w: pose has %d landmarks, want %d",
			ErrMalformedFrame, len(f.Pose.Points), NumPoseLandmarks)
	}
	return nil
}
