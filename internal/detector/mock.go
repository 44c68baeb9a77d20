package detector

import (
	"math"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back pre-configured landmark frames.
type MockDetector struct {
	frames []*LandmarkFrame
	index  int
	loop   bool
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{loop: true}
}

// SetFrames sets the frame sequence returned by Detect. When loop is
// true the sequence repeats from the beginning once exhausted.
func (m *MockDetector) SetFrames(frames []*LandmarkFrame, loop bool) {
	m.frames = frames
	m.index = 0
	m.loop = loop
}

// SetFrame configures a single frame returned on every Detect call.
func (m *MockDetector) SetFrame(frame *LandmarkFrame) {
	m.SetFrames([]*LandmarkFrame{frame}, true)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the next pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*LandmarkFrame, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return &LandmarkFrame{}, nil
	}
	if m.index >= len(m.frames) {
		if !m.loop {
			return &LandmarkFrame{}, nil
		}
		m.index = 0
	}
	f := m.frames[m.index]
	m.index++
	return f, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry below is shared by package tests across the module.
// The synthetic subject is a right hand held fingers-up at the right
// side of the image, with the pose upper limbs fully visible.

// NeutralHandLandmarks returns a hand with all four fingers straight
// (collinear bone segments, every joint at 0 degrees) and the thumb
// resting to the side. All points carry visibility 0.95.
func NeutralHandLandmarks() *HandLandmarks {
	h := &HandLandmarks{
		Points: make([]Landmark, NumHandLandmarks),
		Score:  0.95,
	}

	set := func(i int, x, y, z float64) {
		h.Points[i] = Landmark{X: x, Y: y, Z: z, Visibility: 0.95}
	}

	set(Wrist, 0.68, 0.60, 0)

	// Fingers as vertical columns: MCP, PIP, DIP, tip stacked straight up.
	fingerX := map[int]float64{IndexMCP: 0.72, MiddleMCP: 0.68, RingMCP: 0.64, PinkyMCP: 0.60}
	for mcp, x := range fingerX {
		set(mcp, x, 0.48, 0)
		set(mcp+1, x, 0.40, 0)
		set(mcp+2, x, 0.34, 0)
		set(mcp+3, x, 0.28, 0)
	}

	set(ThumbCMC, 0.73, 0.56, 0)
	set(ThumbMCP, 0.76, 0.52, 0)
	set(ThumbIP, 0.78, 0.49, 0)
	set(ThumbTip, 0.80, 0.46, 0)

	return h
}

// FlexedIndexHandLandmarks returns the neutral hand with the index PIP
// joint flexed by deg degrees. The distal segments rotate toward the
// palm side (negative x for this right-hand fixture), leaving MCP and
// DIP at 0 degrees.
func FlexedIndexHandLandmarks(deg float64) *HandLandmarks {
	h := NeutralHandLandmarks()
	bendFingerAtPIP(h, IndexPIP, deg)
	return h
}

// UprightPoseLandmarks returns a pose with both upper limbs visible
// and the right wrist adjacent to the fixture hand base. Unused points
// sit at the image center with full visibility.
func UprightPoseLandmarks() *PoseLandmarks {
	p := &PoseLandmarks{Points: make([]Landmark, NumPoseLandmarks)}
	for i := range p.Points {
		p.Points[i] = Landmark{X: 0.5, Y: 0.5, Z: 0, Visibility: 0.9}
	}

	set := func(i int, x, y float64) {
		p.Points[i] = Landmark{X: x, Y: y, Z: 0, Visibility: 0.9}
	}

	set(PoseLeftShoulder, 0.38, 0.30)
	set(PoseRightShoulder, 0.62, 0.30)
	set(PoseLeftElbow, 0.30, 0.48)
	set(PoseRightElbow, 0.72, 0.76)
	set(PoseLeftWrist, 0.28, 0.62)
	set(PoseRightWrist, 0.69, 0.61)

	return p
}

// NeutralFrame assembles a complete observation of the fixture subject.
func NeutralFrame(timestampMs int64) *LandmarkFrame {
	return &LandmarkFrame{
		Timestamp:        timestampMs,
		Hand:             NeutralHandLandmarks(),
		Pose:             UprightPoseLandmarks(),
		SourceConfidence: 0.95,
	}
}

// bendFingerAtPIP rotates the two bone segments distal to the given
// PIP landmark by deg degrees toward the palm side of the fixture.
func bendFingerAtPIP(h *HandLandmarks, pip int, deg float64) {
	rad := deg * math.Pi / 180
	pipPt := h.Points[pip]
	boneLen := 0.06

	dirX := -math.Sin(rad)
	dirY := -math.Cos(rad)

	h.Points[pip+1] = Landmark{
		X:          pipPt.X + boneLen*dirX,
		Y:          pipPt.Y + boneLen*dirY,
		Z:          pipPt.Z,
		Visibility: pipPt.Visibility,
	}
	h.Points[pip+2] = Landmark{
		X:          pipPt.X + 2*boneLen*dirX,
		Y:          pipPt.Y + 2*boneLen*dirY,
		Z:          pipPt.Z,
		Visibility: pipPt.Visibility,
	}
}
