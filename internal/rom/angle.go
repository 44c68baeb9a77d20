package rom

import (
	"math"

	"github.com/clinometric/handrom/internal/detector"
)

// Direction classifies the side of neutral an angle falls on.
type Direction string

const (
	DirFlexion   Direction = "flexion"
	DirExtension Direction = "extension"
	DirNeutral   Direction = "neutral"
)

// AngleResult is the calculator's pure output for one segment in one
// frame: fully determined by the input landmarks and the locked
// laterality, with no state of its own.
type AngleResult struct {
	Segment    Segment    `json:"segment"`
	Degrees    float64    `json:"degrees"`
	Direction  Direction  `json:"direction"`
	Confidence float64    `json:"confidence"`
	Laterality Laterality `json:"laterality"`
	Valid      bool       `json:"valid"`
}

// Vec3 is a 3D vector built from two landmarks.
type Vec3 struct {
	X, Y, Z float64
}

// BoneVector returns the vector from the proximal landmark to the
// distal one. All joint measurements use proximal-to-distal bone
// vectors, so a straight joint reads 0 degrees and deflection grows
// with bending; no 180-degree complement is applied anywhere.
func BoneVector(proximal, distal detector.Landmark) Vec3 {
	return Vec3{
		X: distal.X - proximal.X,
		Y: distal.Y - proximal.Y,
		Z: distal.Z - proximal.Z,
	}
}

func (v Vec3) length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) unit() (Vec3, bool) {
	l := v.length()
	if l < 1e-10 {
		return Vec3{}, false
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}, true
}

func dot(a, b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Calculator builds reference/measurement vectors for a segment and
// computes signed, classified angles. It is stateless.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator with the given configuration.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// JointAngle computes the deflection between a reference bone vector
// and the measurement bone vector distal to it, classified against the
// locked laterality.
//
// The bending plane for in-image-plane joints is normal to the z axis,
// so the sign of the z component of ref x meas picks the side of
// neutral. Left and right hands are geometric mirror images; a
// horizontal mirror flips the z component of a cross product, so the
// sign test is negated for the right side, keeping flexion classified
// as flexion for both. Magnitudes within the deadband collapse to an
// explicit neutral with zero degrees reported, so micro-jitter cannot
// oscillate between tiny flexion and extension readings.
func (c *Calculator) JointAngle(seg Segment, ref, meas Vec3, lat Laterality, confidence float64) AngleResult {
	res := AngleResult{Segment: seg, Laterality: lat, Confidence: confidence}

	refU, ok := ref.unit()
	if !ok {
		return res
	}
	measU, ok := meas.unit()
	if !ok {
		return res
	}

	cos := clamp(dot(refU, measU), -1, 1)
	theta := math.Acos(cos) * 180 / math.Pi

	res.Valid = true
	if theta <= c.cfg.DeadbandDeg {
		res.Direction = DirNeutral
		res.Degrees = 0
		return res
	}

	res.Degrees = theta
	res.Direction = classifyInPlane(cross(refU, measU).Z, lat)
	return res
}

// classifyInPlane maps the z component of the cross product to a
// direction. Sign convention: for a left hand, positive z means
// flexion; the right hand mirrors it.
func classifyInPlane(crossZ float64, lat Laterality) Direction {
	s := crossZ
	if lat == LateralityRight {
		s = -s
	}
	if s > 0 {
		return DirFlexion
	}
	return DirExtension
}

// classifyDepth maps the x component of the cross product to a
// direction for out-of-image-plane bending (wrist deviation). The x
// component of a cross product is invariant under a horizontal mirror,
// so no laterality flip applies: ulnar deviation stays on the flexion
// side for both hands.
func classifyDepth(crossX float64) Direction {
	if crossX > 0 {
		return DirFlexion
	}
	return DirExtension
}

// FingerJointAngles computes MCP, PIP and DIP angles for one finger.
// The MCP reference is the metacarpal line (hand base to MCP); each
// interphalangeal joint uses the bone proximal to it as reference and
// the bone distal to it as measurement.
func (c *Calculator) FingerJointAngles(h *detector.HandLandmarks, finger Finger, lat Laterality, confidence float64) []AngleResult {
	if h == nil || len(h.Points) != detector.NumHandLandmarks {
		return nil
	}

	mcp := finger.mcpIndex()
	segs := finger.JointSegments()

	metacarpal := BoneVector(h.Points[detector.Wrist], h.Points[mcp])
	proximal := BoneVector(h.Points[mcp], h.Points[mcp+1])
	middle := BoneVector(h.Points[mcp+1], h.Points[mcp+2])
	distal := BoneVector(h.Points[mcp+2], h.Points[mcp+3])

	return []AngleResult{
		c.JointAngle(segs[0], metacarpal, proximal, lat, confidence),
		c.JointAngle(segs[1], proximal, middle, lat, confidence),
		c.JointAngle(segs[2], middle, distal, lat, confidence),
	}
}

// WristAngles computes wrist flexion/extension and radial/ulnar
// deviation. The reference is the forearm line (elbow to hand base)
// of the locked side; the measurement is the hand orientation (hand
// base to middle MCP). Flexion/extension is the in-image-plane
// deflection; deviation is measured from the projection onto the
// depth plane.
func (c *Calculator) WristAngles(frame *detector.LandmarkFrame, lat Laterality, confidence float64) []AngleResult {
	if frame == nil || frame.Hand == nil || frame.Pose == nil {
		return nil
	}
	if len(frame.Hand.Points) != detector.NumHandLandmarks ||
		len(frame.Pose.Points) != detector.NumPoseLandmarks {
		return nil
	}

	elbowIdx := detector.PoseRightElbow
	if lat == LateralityLeft {
		elbowIdx = detector.PoseLeftElbow
	}

	elbow := frame.Pose.Points[elbowIdx]
	base := frame.Hand.Points[detector.Wrist]
	middleMCP := frame.Hand.Points[detector.MiddleMCP]

	forearm := BoneVector(elbow, base)
	hand := BoneVector(base, middleMCP)

	flexExt := c.JointAngle(SegWrist, forearm, hand, lat, confidence)

	deviation := c.deviationAngle(forearm, hand, lat, confidence)

	return []AngleResult{flexExt, deviation}
}

// deviationAngle measures radial/ulnar deviation from the projections
// of the forearm and hand vectors onto the y-z plane.
func (c *Calculator) deviationAngle(forearm, hand Vec3, lat Laterality, confidence float64) AngleResult {
	res := AngleResult{Segment: SegWristDeviation, Laterality: lat, Confidence: confidence}

	refU, ok := Vec3{0, forearm.Y, forearm.Z}.unit()
	if !ok {
		return res
	}
	measU, ok := Vec3{0, hand.Y, hand.Z}.unit()
	if !ok {
		return res
	}

	cos := clamp(dot(refU, measU), -1, 1)
	theta := math.Acos(cos) * 180 / math.Pi

	res.Valid = true
	if theta <= c.cfg.DeadbandDeg {
		res.Direction = DirNeutral
		res.Degrees = 0
		return res
	}

	res.Degrees = theta
	res.Direction = classifyDepth(cross(refU, measU).X)
	return res
}

// kapandjiTargets maps the ordinal opposition score to the hand
// landmark the thumb tip must reach, highest score first. Crease
// positions without a landmark of their own use the nearest joint
// landmark; the distal palmar crease (score 10) is approximated by
// the midpoint of the pinky MCP and the hand base, handled separately.
var kapandjiTargets = []struct {
	score int
	index int
}{
	{9, detector.PinkyMCP},
	{8, detector.PinkyPIP},
	{7, detector.PinkyDIP},
	{6, detector.PinkyTip},
	{5, detector.RingTip},
	{4, detector.MiddleTip},
	{3, detector.IndexTip},
	{2, detector.IndexDIP},
	{1, detector.IndexPIP},
}

// KapandjiScore grades thumb opposition on the 0-10 Kapandji scale by
// finding the highest-ranked target the thumb tip is in contact with.
// Contact is judged on the normalized hand (wrist to middle MCP = 1.0)
// so the score is independent of hand size and camera distance.
func (c *Calculator) KapandjiScore(h *detector.HandLandmarks) int {
	normalized := h.Normalize()
	if normalized == nil {
		return 0
	}

	tip := normalized.Points[detector.ThumbTip]

	// Distal palmar crease: midpoint of pinky MCP and hand base.
	pinkyMCP := normalized.Points[detector.PinkyMCP]
	crease := detector.Landmark{X: pinkyMCP.X / 2, Y: pinkyMCP.Y / 2, Z: pinkyMCP.Z / 2}
	if detector.Distance(tip, crease) <= c.cfg.KapandjiContact {
		return 10
	}

	for _, target := range kapandjiTargets {
		if detector.Distance(tip, normalized.Points[target.index]) <= c.cfg.KapandjiContact {
			return target.score
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
