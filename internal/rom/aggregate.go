package rom

import "math"

// SegmentRom is the final range-of-motion summary for one segment.
type SegmentRom struct {
	MaxFlexion   float64 `json:"max_flexion"`
	MaxExtension float64 `json:"max_extension"`
	TotalRom     float64 `json:"total_rom"`
}

// SessionRomResult is the per-assessment clinical output: a flat
// numeric structure independent of any landmark or vector internals,
// created once when the session ends and read-only thereafter.
type SessionRomResult struct {
	PerSegment     map[Segment]SegmentRom `json:"per_segment"`
	Kapandji       int                    `json:"kapandji,omitempty"`
	QualityScore   int                    `json:"quality_score"`
	FramesAccepted int                    `json:"frames_accepted"`
	FramesRejected int                    `json:"frames_rejected"`
	FramesTotal    int                    `json:"frames_total"`
	Laterality     Laterality             `json:"laterality"`
}

// FrameOutcome summarizes what one processed frame contributed.
type FrameOutcome int

const (
	// FrameSkipped produced no usable measurement (laterality not yet
	// locked, hand lost, or all segments occluded).
	FrameSkipped FrameOutcome = iota
	// FrameAccepted contributed at least one validated angle and no
	// rejections.
	FrameAccepted
	// FrameRejected had at least one angle withheld by the constraint
	// or temporal layer.
	FrameRejected
)

// Quality score weights: accepted-frame fraction dominates, average
// segment confidence refines, and a successful laterality lock adds a
// fixed bonus.
const (
	qualityAcceptedWeight   = 0.6
	qualityConfidenceWeight = 0.3
	qualityLockBonus        = 0.1
)

type segmentExtremes struct {
	maxFlexion   float64
	maxExtension float64
	seen         bool
}

// Aggregator reduces the accepted per-frame angle stream into the
// session-level result. It holds no behavior beyond aggregation; the
// maxima per direction are tracked independently, so they need not
// come from the same frame.
type Aggregator struct {
	perSegment map[Segment]*segmentExtremes
	kapandji   int
	confSum    float64
	confCount  int
	accepted   int
	rejected   int
	total      int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{perSegment: make(map[Segment]*segmentExtremes)}
}

// AddAngle records one accepted, validated angle.
func (a *Aggregator) AddAngle(res AngleResult) {
	ext, ok := a.perSegment[res.Segment]
	if !ok {
		ext = &segmentExtremes{}
		a.perSegment[res.Segment] = ext
	}
	ext.seen = true

	switch res.Direction {
	case DirFlexion:
		if res.Degrees > ext.maxFlexion {
			ext.maxFlexion = res.Degrees
		}
	case DirExtension:
		if res.Degrees > ext.maxExtension {
			ext.maxExtension = res.Degrees
		}
	}

	a.noteConfidence(res.Confidence)
}

func (a *Aggregator) noteConfidence(c float64) {
	a.confSum += c
	a.confCount++
}

// AddKapandji records one thumb opposition score, keeping the maximum.
func (a *Aggregator) AddKapandji(score int) {
	if score > a.kapandji {
		a.kapandji = score
	}
}

// CountFrame records the outcome of one fully processed frame.
func (a *Aggregator) CountFrame(outcome FrameOutcome) {
	a.total++
	switch outcome {
	case FrameAccepted:
		a.accepted++
	case FrameRejected:
		a.rejected++
	}
}

// Finalize produces the session result. It is a pure reduction over
// what was added: deterministic and order-independent.
func (a *Aggregator) Finalize(lat SessionLaterality) SessionRomResult {
	result := SessionRomResult{
		PerSegment:     make(map[Segment]SegmentRom, len(a.perSegment)),
		Kapandji:       a.kapandji,
		FramesAccepted: a.accepted,
		FramesRejected: a.rejected,
		FramesTotal:    a.total,
		Laterality:     lat.Value,
	}

	for seg, ext := range a.perSegment {
		if !ext.seen {
			continue
		}
		result.PerSegment[seg] = SegmentRom{
			MaxFlexion:   ext.maxFlexion,
			MaxExtension: ext.maxExtension,
			TotalRom:     ext.maxFlexion + ext.maxExtension,
		}
	}

	result.QualityScore = a.qualityScore(lat)
	return result
}

func (a *Aggregator) qualityScore(lat SessionLaterality) int {
	var acceptedFrac float64
	if a.total > 0 {
		acceptedFrac = float64(a.accepted) / float64(a.total)
	}

	var avgConf float64
	if a.confCount > 0 {
		avgConf = a.confSum / float64(a.confCount)
	}

	var lockBonus float64
	if lat.Locked {
		lockBonus = 1
	}

	score := 100 * (qualityAcceptedWeight*acceptedFrac +
		qualityConfidenceWeight*avgConf +
		qualityLockBonus*lockBonus)

	return int(math.Round(clamp(score, 0, 100)))
}
