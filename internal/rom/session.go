package rom

import (
	"fmt"
	"log"

	"github.com/clinometric/handrom/internal/detector"
)

// Rejection reports one angle withheld by the constraint or temporal
// layer, with the raw value kept for later diagnosis.
type Rejection struct {
	Segment Segment      `json:"segment"`
	Reason  RejectReason `json:"reason"`
	Degrees float64      `json:"degrees"`
}

// FrameResult is the optional per-frame output, suitable for live
// on-screen feedback. A frame processed before the laterality lock or
// with the hand lost carries no angles; that is an empty result, not
// an error.
type FrameResult struct {
	Timestamp   int64               `json:"timestamp"`
	Laterality  Laterality          `json:"laterality"`
	Angles      []AngleResult       `json:"angles,omitempty"`
	Rejections  []Rejection         `json:"rejections,omitempty"`
	Confidences []SegmentConfidence `json:"confidences,omitempty"`
	Kapandji    int                 `json:"kapandji,omitempty"`
}

// Session processes one recording session's frame stream through the
// full chain: laterality lock, confidence assessment, angle
// computation, constraint validation and aggregation. Each session
// owns its state exclusively; concurrent sessions must use separate
// instances. Processing is synchronous: each frame is fully handled
// before the next.
type Session struct {
	cfg       Config
	typ       AssessmentType
	resolver  *Resolver
	filter    *Filter
	calc      *Calculator
	validator *Validator
	agg       *Aggregator
	lat       SessionLaterality
	prevHand  *detector.HandLandmarks
}

// NewSession creates a session for one assessment.
func NewSession(cfg Config, typ AssessmentType) *Session {
	return &Session{
		cfg:       cfg,
		typ:       typ,
		resolver:  NewResolver(cfg),
		filter:    NewFilter(cfg, typ),
		calc:      NewCalculator(cfg),
		validator: NewValidator(cfg, DefaultJointLimits()),
		agg:       NewAggregator(),
		lat:       NewSessionLaterality(),
	}
}

// Laterality returns the current session laterality state.
func (s *Session) Laterality() SessionLaterality {
	return s.lat
}

// ProcessFrame runs one observation through the full pipeline and
// returns the per-frame result. The only error condition is a
// structurally malformed frame, which is a contract violation by the
// upstream detector adapter; every tracking-quality condition is
// recovered locally by withholding values.
func (s *Session) ProcessFrame(frame *detector.LandmarkFrame) (*FrameResult, error) {
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	result := &FrameResult{Timestamp: frame.Timestamp}

	s.lat = s.resolver.Resolve(frame, s.lat)
	result.Laterality = s.lat.Value

	if !s.lat.Locked || frame.Hand == nil {
		// No angles until the side is known and a hand is tracked.
		s.agg.CountFrame(FrameSkipped)
		s.observeHand(frame)
		return result, nil
	}

	switch s.typ {
	case AssessWrist:
		s.processWrist(frame, result)
	case AssessThumb:
		s.processThumb(frame, result)
	default:
		s.processFingers(frame, result)
	}

	s.agg.CountFrame(frameOutcome(result))
	s.observeHand(frame)
	return result, nil
}

// Finalize ends the session and produces the clinical result. The
// session must not be used afterwards.
func (s *Session) Finalize() SessionRomResult {
	return s.agg.Finalize(s.lat)
}

func (s *Session) processFingers(frame *detector.LandmarkFrame, result *FrameResult) {
	depthOccluded := s.filter.DepthOcclusions(frame.Hand)

	for _, finger := range Fingers {
		current := finger.landmarks(frame.Hand)
		previous := finger.landmarks(s.prevHand)

		conf := s.filter.Assess(finger.ConfidenceSegment(), previous, current)
		if depthOccluded[finger] {
			conf.Confidence = 0
			conf.Classification = ClassOccluded
			conf.Reason = "fingertip behind neighbor"
		}
		result.Confidences = append(result.Confidences, conf)

		if !s.filter.Usable(conf) {
			continue
		}

		for _, angle := range s.calc.FingerJointAngles(frame.Hand, finger, s.lat.Value, conf.Confidence) {
			s.recordAngle(angle, result)
		}
	}
}

func (s *Session) processWrist(frame *detector.LandmarkFrame, result *FrameResult) {
	if frame.Pose == nil {
		result.Confidences = append(result.Confidences, SegmentConfidence{
			Segment:        SegWrist,
			Classification: ClassOccluded,
			Reason:         "missing pose landmarks",
		})
		return
	}

	current := wristLandmarks(frame.Hand)
	previous := wristLandmarks(s.prevHand)

	conf := s.filter.Assess(SegWrist, previous, current)
	result.Confidences = append(result.Confidences, conf)

	if !s.filter.Usable(conf) {
		return
	}

	for _, angle := range s.calc.WristAngles(frame, s.lat.Value, conf.Confidence) {
		s.recordAngle(angle, result)
	}
}

func (s *Session) processThumb(frame *detector.LandmarkFrame, result *FrameResult) {
	current := thumbLandmarks(frame.Hand)
	previous := thumbLandmarks(s.prevHand)

	conf := s.filter.Assess(SegThumb, previous, current)
	result.Confidences = append(result.Confidences, conf)

	if !s.filter.Usable(conf) {
		return
	}

	score := s.calc.KapandjiScore(frame.Hand)
	result.Kapandji = score
	s.agg.AddKapandji(score)
	s.agg.noteConfidence(conf.Confidence)
}

func (s *Session) recordAngle(angle AngleResult, result *FrameResult) {
	ok, reason := s.validator.Validate(angle)
	if ok {
		result.Angles = append(result.Angles, angle)
		s.agg.AddAngle(angle)
		return
	}

	if reason == ReasonAnatomicalLimit || reason == ReasonTemporalDiscontinuity {
		result.Rejections = append(result.Rejections, Rejection{
			Segment: angle.Segment,
			Reason:  reason,
			Degrees: angle.Degrees,
		})
		log.Printf("rejected %s angle %.1f° (%s, %s)",
			angle.Segment, angle.Degrees, angle.Direction, reason)
	}
}

func (s *Session) observeHand(frame *detector.LandmarkFrame) {
	s.prevHand = frame.Hand
}

func frameOutcome(result *FrameResult) FrameOutcome {
	if len(result.Rejections) > 0 {
		return FrameRejected
	}
	if len(result.Angles) > 0 || result.Kapandji > 0 {
		return FrameAccepted
	}
	return FrameSkipped
}

// wristLandmarks collects the points whose stability drives the wrist
// confidence assessment: the hand base and the middle MCP that anchor
// the hand orientation vector.
func wristLandmarks(h *detector.HandLandmarks) []detector.Landmark {
	if h == nil || len(h.Points) != detector.NumHandLandmarks {
		return nil
	}
	return []detector.Landmark{h.Points[detector.Wrist], h.Points[detector.MiddleMCP]}
}

// thumbLandmarks collects the thumb column including the tip.
func thumbLandmarks(h *detector.HandLandmarks) []detector.Landmark {
	if h == nil || len(h.Points) != detector.NumHandLandmarks {
		return nil
	}
	return h.Points[detector.ThumbCMC : detector.ThumbTip+1]
}
