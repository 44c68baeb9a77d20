package rom

import "math"

// RejectReason names the data-quality condition that withheld a value.
// None of these are process-fatal; the core recovers locally by
// skipping the affected segment or frame.
type RejectReason string

const (
	ReasonInsufficientLandmarks  RejectReason = "insufficient_landmarks"
	ReasonLateralityUndetermined RejectReason = "laterality_undetermined"
	ReasonOccludedSegment        RejectReason = "occluded_segment"
	ReasonAnatomicalLimit        RejectReason = "anatomical_limit_exceeded"
	ReasonTemporalDiscontinuity  RejectReason = "temporal_discontinuity"
)

// JointLimits holds the hard physiological ceilings for one segment,
// in degrees.
type JointLimits struct {
	MaxFlexion   float64
	MaxExtension float64
}

// DefaultJointLimits returns the physiological ceilings per segment.
// A computed angle beyond its ceiling is evidence of a tracking error,
// not of an extreme pose, so it is rejected outright rather than
// clamped.
func DefaultJointLimits() map[Segment]JointLimits {
	limits := make(map[Segment]JointLimits)

	for _, f := range Fingers {
		segs := f.JointSegments()
		limits[segs[0]] = JointLimits{MaxFlexion: 90, MaxExtension: 45}  // MCP
		limits[segs[1]] = JointLimits{MaxFlexion: 110, MaxExtension: 15} // PIP
		limits[segs[2]] = JointLimits{MaxFlexion: 90, MaxExtension: 30}  // DIP
	}

	limits[SegWrist] = JointLimits{MaxFlexion: 80, MaxExtension: 70}
	// Deviation: ulnar on the flexion side, radial on the extension side.
	limits[SegWristDeviation] = JointLimits{MaxFlexion: 45, MaxExtension: 30}

	return limits
}

// angleHistory is the fixed-capacity ring of recently accepted signed
// angles for one segment, plus the pending buffer of out-of-band
// values awaiting corroboration.
type angleHistory struct {
	buf     []float64
	head    int
	n       int
	pending []float64
}

func newAngleHistory(capacity int) *angleHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &angleHistory{buf: make([]float64, capacity)}
}

func (h *angleHistory) push(v float64) {
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
	if h.n < len(h.buf) {
		h.n++
	}
}

func (h *angleHistory) last() float64 {
	idx := (h.head - 1 + len(h.buf)) % len(h.buf)
	return h.buf[idx]
}

// Validator rejects angle outputs that violate physiological joint
// limits or change implausibly between consecutive frames. Each
// session owns its own Validator; the rolling history never outlives
// the session.
type Validator struct {
	cfg     Config
	limits  map[Segment]JointLimits
	history map[Segment]*angleHistory
}

// NewValidator creates a Validator with the given limits.
func NewValidator(cfg Config, limits map[Segment]JointLimits) *Validator {
	return &Validator{
		cfg:     cfg,
		limits:  limits,
		history: make(map[Segment]*angleHistory),
	}
}

// Validate applies the anatomical clamp and the temporal consistency
// rule to one angle result. It returns false with a reason when the
// value must be withheld; rejected values never enter the rolling
// history.
//
// A frame-to-frame jump beyond MaxFrameDeltaDeg is rejected unless the
// out-of-band value persists: once PersistenceFrames consecutive
// frames agree on the new level it is accepted as genuine fast
// movement rather than an outlier.
func (v *Validator) Validate(res AngleResult) (bool, RejectReason) {
	if !res.Valid {
		return false, ReasonInsufficientLandmarks
	}

	if limit, ok := v.limits[res.Segment]; ok {
		switch res.Direction {
		case DirFlexion:
			if res.Degrees > limit.MaxFlexion {
				return false, ReasonAnatomicalLimit
			}
		case DirExtension:
			if res.Degrees > limit.MaxExtension {
				return false, ReasonAnatomicalLimit
			}
		}
	}

	signed := res.Degrees
	if res.Direction == DirExtension {
		signed = -signed
	}

	hist, ok := v.history[res.Segment]
	if !ok {
		hist = newAngleHistory(v.cfg.HistorySize)
		v.history[res.Segment] = hist
	}

	if hist.n == 0 {
		hist.push(signed)
		return true, ""
	}

	if math.Abs(signed-hist.last()) <= v.cfg.MaxFrameDeltaDeg {
		hist.pending = hist.pending[:0]
		hist.push(signed)
		return true, ""
	}

	// Out of band: corroborate against the pending run.
	if len(hist.pending) > 0 &&
		math.Abs(signed-hist.pending[len(hist.pending)-1]) <= v.cfg.MaxFrameDeltaDeg {
		hist.pending = append(hist.pending, signed)
		if len(hist.pending) >= v.cfg.PersistenceFrames {
			hist.pending = hist.pending[:0]
			hist.push(signed)
			return true, ""
		}
		return false, ReasonTemporalDiscontinuity
	}

	hist.pending = append(hist.pending[:0], signed)
	return false, ReasonTemporalDiscontinuity
}
