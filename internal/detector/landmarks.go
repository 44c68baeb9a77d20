// Package detector provides the landmark detection boundary for the
// handrom motion-analysis core: typed landmark frames, the detector
// interface, and adapters that produce frames from a video stream.
package detector

import "math"

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Pose landmark indices following the MediaPipe pose convention.
// Only the upper-limb points are used for laterality resolution and
// wrist measurements; the full 33-point set is carried through.
const (
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	NumPoseLandmarks  = 33
)

// Landmark is a single tracked anatomical point. Coordinates are
// normalized and unit-less (x, y in the 0-1 image range, z relative
// depth). Visibility is the detector's 0-1 confidence that the point
// is correctly placed.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// HandLandmarks holds the 21 hand landmarks for one detected hand.
type HandLandmarks struct {
	Points []Landmark `json:"points"`
	Score  float64    `json:"score"`
}

// PoseLandmarks holds the 33 body pose landmarks.
type PoseLandmarks struct {
	Points []Landmark `json:"points"`
}

// Distance calculates the Euclidean distance between two landmarks.
func Distance(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HandScale returns the distance from the wrist base to the middle
// finger MCP, the standard scale reference for this hand. Returns 0
// for an incomplete landmark set.
func (h *HandLandmarks) HandScale() float64 {
	if h == nil || len(h.Points) != NumHandLandmarks {
		return 0
	}
	return Distance(h.Points[Wrist], h.Points[MiddleMCP])
}

// Normalize returns a copy of the hand landmarks translated so the
// wrist base sits at the origin and scaled so the wrist to middle
// finger MCP distance is 1.0. Scale-independent comparisons (thumb
// opposition contact checks) work on normalized sets.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil || len(h.Points) != NumHandLandmarks {
		return nil
	}

	normalized := &HandLandmarks{
		Points: make([]Landmark, NumHandLandmarks),
		Score:  h.Score,
	}

	base := h.Points[Wrist]
	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i] = Landmark{
			X:          h.Points[i].X - base.X,
			Y:          h.Points[i].Y - base.Y,
			Z:          h.Points[i].Z - base.Z,
			Visibility: h.Points[i].Visibility,
		}
	}

	scale := Distance(Landmark{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
