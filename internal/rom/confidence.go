package rom

import (
	"github.com/clinometric/handrom/internal/detector"
)

// Classification grades the tracking reliability of one segment in one
// frame.
type Classification string

const (
	ClassStable   Classification = "stable"
	ClassModerate Classification = "moderate"
	ClassOccluded Classification = "occluded"
)

// SegmentConfidence is the per-frame reliability score for one
// anatomical segment. It is derived fresh each frame from the previous
// and current landmark positions and never persisted beyond the
// rolling window needed for temporal checks.
type SegmentConfidence struct {
	Segment        Segment        `json:"segment"`
	Confidence     float64        `json:"confidence"`
	Classification Classification `json:"classification"`
	Movement       float64        `json:"movement"`
	Reason         string         `json:"reason,omitempty"`
}

// Filter scores frame-to-frame landmark stability per segment and
// flags occlusions.
type Filter struct {
	cfg           Config
	minVisibility float64
}

// NewFilter creates a Filter using the visibility floor of the given
// assessment type.
func NewFilter(cfg Config, t AssessmentType) *Filter {
	return &Filter{cfg: cfg, minVisibility: cfg.MinVisibility(t)}
}

// Assess scores one segment's landmarks against the previous frame.
//
// The average per-point 3D displacement falls into one of three zones:
// below LowMovement the segment is stable with full confidence, above
// HighMovement it is occluded with zero confidence, and between the
// two the confidence interpolates linearly. A nil previous set (first
// frame after lock) counts as zero movement. Landmarks below the
// assessment's visibility floor are occluded regardless of movement.
func (f *Filter) Assess(seg Segment, previous, current []detector.Landmark) SegmentConfidence {
	if len(current) == 0 {
		return SegmentConfidence{
			Segment:        seg,
			Classification: ClassOccluded,
			Reason:         "missing landmarks",
		}
	}
	if previous != nil && len(previous) != len(current) {
		return SegmentConfidence{
			Segment:        seg,
			Classification: ClassOccluded,
			Reason:         "landmark count changed",
		}
	}

	var visSum float64
	for _, lm := range current {
		visSum += lm.Visibility
	}
	if visSum/float64(len(current)) < f.minVisibility {
		return SegmentConfidence{
			Segment:        seg,
			Classification: ClassOccluded,
			Reason:         "low visibility",
		}
	}

	var movement float64
	if previous != nil {
		var sum float64
		for i := range current {
			sum += detector.Distance(previous[i], current[i])
		}
		movement = sum / float64(len(current))
	}

	switch {
	case movement < f.cfg.LowMovement:
		return SegmentConfidence{
			Segment:        seg,
			Confidence:     1.0,
			Classification: ClassStable,
			Movement:       movement,
		}
	case movement < f.cfg.HighMovement:
		conf := 1 - (movement-f.cfg.LowMovement)/(f.cfg.HighMovement-f.cfg.LowMovement)
		return SegmentConfidence{
			Segment:        seg,
			Confidence:     conf,
			Classification: ClassModerate,
			Movement:       movement,
		}
	default:
		return SegmentConfidence{
			Segment:        seg,
			Classification: ClassOccluded,
			Movement:       movement,
			Reason:         "excessive movement",
		}
	}
}

// Usable reports whether a segment cleared the filter: the angle
// calculator runs only for usable segments, so downstream aggregation
// can distinguish "no data" from "measured zero".
func (f *Filter) Usable(sc SegmentConfidence) bool {
	return sc.Classification != ClassOccluded && sc.Confidence >= f.cfg.MinSegmentConfidence
}

// DepthOcclusions compares the z-coordinates of adjacent fingertips
// and flags the further-back finger when the gap exceeds the depth
// threshold. This catches a finger tucking behind its neighbor while
// both remain spatially stable in the image plane.
func (f *Filter) DepthOcclusions(h *detector.HandLandmarks) map[Finger]bool {
	occluded := make(map[Finger]bool)
	if h == nil || len(h.Points) != detector.NumHandLandmarks {
		return occluded
	}

	for i := 0; i < len(Fingers)-1; i++ {
		a, b := Fingers[i], Fingers[i+1]
		za := h.Points[a.tipIndex()].Z
		zb := h.Points[b.tipIndex()].Z

		// Greater z is further from the camera.
		if za-zb > f.cfg.DepthOcclusion {
			occluded[a] = true
		} else if zb-za > f.cfg.DepthOcclusion {
			occluded[b] = true
		}
	}

	return occluded
}
