// Package rom implements the biomechanical motion-analysis core: it
// converts per-frame landmark observations into validated joint angles
// and session-level range-of-motion results.
package rom

import "github.com/clinometric/handrom/internal/detector"

// Segment identifies one measured anatomical segment. Joint-level
// segments carry angle results; finger-level segments carry confidence
// assessments shared by the joints of that finger.
type Segment string

const (
	SegIndexMCP  Segment = "index_mcp"
	SegIndexPIP  Segment = "index_pip"
	SegIndexDIP  Segment = "index_dip"
	SegMiddleMCP Segment = "middle_mcp"
	SegMiddlePIP Segment = "middle_pip"
	SegMiddleDIP Segment = "middle_dip"
	SegRingMCP   Segment = "ring_mcp"
	SegRingPIP   Segment = "ring_pip"
	SegRingDIP   Segment = "ring_dip"
	SegPinkyMCP  Segment = "pinky_mcp"
	SegPinkyPIP  Segment = "pinky_pip"
	SegPinkyDIP  Segment = "pinky_dip"

	// Wrist flexion/extension and radial/ulnar deviation. Radial
	// deviation is recorded on the extension side of the deviation
	// segment, ulnar on the flexion side.
	SegWrist          Segment = "wrist"
	SegWristDeviation Segment = "wrist_deviation"

	// Thumb opposition, scored on the Kapandji ordinal scale rather
	// than as a continuous angle.
	SegThumb Segment = "thumb_opposition"
)

// Finger identifies one of the four fingers for confidence assessment
// and depth-occlusion checks. The thumb is assessed separately.
type Finger string

const (
	FingerIndex  Finger = "index"
	FingerMiddle Finger = "middle"
	FingerRing   Finger = "ring"
	FingerPinky  Finger = "pinky"
)

// Fingers lists the four fingers in radial-to-ulnar order. Depth
// occlusion checks compare adjacent entries.
var Fingers = []Finger{FingerIndex, FingerMiddle, FingerRing, FingerPinky}

// mcpIndex returns the hand-landmark index of the finger's MCP; the
// PIP, DIP and tip follow at consecutive indices.
func (f Finger) mcpIndex() int {
	switch f {
	case FingerIndex:
		return detector.IndexMCP
	case FingerMiddle:
		return detector.MiddleMCP
	case FingerRing:
		return detector.RingMCP
	default:
		return detector.PinkyMCP
	}
}

// JointSegments returns the finger's three joint segments in
// proximal-to-distal order (MCP, PIP, DIP).
func (f Finger) JointSegments() [3]Segment {
	switch f {
	case FingerIndex:
		return [3]Segment{SegIndexMCP, SegIndexPIP, SegIndexDIP}
	case FingerMiddle:
		return [3]Segment{SegMiddleMCP, SegMiddlePIP, SegMiddleDIP}
	case FingerRing:
		return [3]Segment{SegRingMCP, SegRingPIP, SegRingDIP}
	default:
		return [3]Segment{SegPinkyMCP, SegPinkyPIP, SegPinkyDIP}
	}
}

// ConfidenceSegment returns the finger-level segment id used in
// SegmentConfidence reports.
func (f Finger) ConfidenceSegment() Segment {
	return Segment(f)
}

// landmarks extracts the finger's four landmarks (MCP, PIP, DIP, tip)
// from a hand set.
func (f Finger) landmarks(h *detector.HandLandmarks) []detector.Landmark {
	if h == nil || len(h.Points) != detector.NumHandLandmarks {
		return nil
	}
	mcp := f.mcpIndex()
	return h.Points[mcp : mcp+4]
}

// tipIndex returns the hand-landmark index of the fingertip.
func (f Finger) tipIndex() int {
	return f.mcpIndex() + 3
}
