package rom

import (
	"github.com/clinometric/handrom/internal/detector"
)

// Laterality is the body side a tracked hand belongs to.
type Laterality string

const (
	LateralityLeft    Laterality = "left"
	LateralityRight   Laterality = "right"
	LateralityUnknown Laterality = "unknown"
)

// SessionLaterality tracks the side assigned to a recording session.
// Once Locked is true, Value never changes for the remainder of the
// session: clinical comparability requires a single consistent
// anatomical reference, so brief early ambiguity is preferable to a
// mid-session sign flip.
type SessionLaterality struct {
	Value      Laterality `json:"value"`
	Locked     bool       `json:"locked"`
	Confidence float64    `json:"confidence"`
}

// NewSessionLaterality returns the unresolved starting state.
func NewSessionLaterality() SessionLaterality {
	return SessionLaterality{Value: LateralityUnknown}
}

// Resolver determines which body side a tracked hand belongs to by
// comparing the hand base position against the pose wrists.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve inspects one frame and returns the updated session state.
//
// The hand base is matched to the closer pose wrist. The candidate is
// accepted only if the candidate-side wrist and elbow are clearly
// visible and the farther/closer distance ratio exceeds the configured
// margin. Acceptance locks the side immediately and irreversibly; this
// is a one-shot commitment, not a running vote. Once locked, Resolve
// is a no-op.
func (r *Resolver) Resolve(frame *detector.LandmarkFrame, state SessionLaterality) SessionLaterality {
	if state.Locked {
		return state
	}
	if frame == nil || frame.Hand == nil || frame.Pose == nil {
		return state
	}
	if len(frame.Hand.Points) != detector.NumHandLandmarks ||
		len(frame.Pose.Points) != detector.NumPoseLandmarks {
		return state
	}

	base := frame.Hand.Points[detector.Wrist]
	pose := frame.Pose.Points

	distLeft := detector.Distance(base, pose[detector.PoseLeftWrist])
	distRight := detector.Distance(base, pose[detector.PoseRightWrist])

	candidate := LateralityRight
	closer, farther := distRight, distLeft
	wristIdx, elbowIdx := detector.PoseRightWrist, detector.PoseRightElbow
	if distLeft < distRight {
		candidate = LateralityLeft
		closer, farther = distLeft, distRight
		wristIdx, elbowIdx = detector.PoseLeftWrist, detector.PoseLeftElbow
	}

	// Near-tie: no clear margin, stay unresolved.
	if farther < closer*r.cfg.LateralityMargin {
		return state
	}

	wristVis := pose[wristIdx].Visibility
	elbowVis := pose[elbowIdx].Visibility
	if wristVis <= r.cfg.PoseMinVisibility || elbowVis <= r.cfg.PoseMinVisibility {
		return state
	}

	return SessionLaterality{
		Value:      candidate,
		Locked:     true,
		Confidence: state.Confidence + (wristVis+elbowVis)/2,
	}
}
