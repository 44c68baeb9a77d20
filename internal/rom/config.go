package rom

// AssessmentType selects which segments a session measures and which
// visibility floor applies. Wrist assessments use a stricter floor
// than finger assessments: wrist vectors span hand and pose landmark
// sets, so marginal pose tracking corrupts them more easily.
type AssessmentType string

const (
	AssessFingers AssessmentType = "fingers"
	AssessWrist   AssessmentType = "wrist"
	AssessThumb   AssessmentType = "thumb"
)

// Config holds the calibrated thresholds of the motion-analysis core.
// Thresholds are configuration rather than constants so they can be
// tuned per assessment type.
type Config struct {
	// Movement thresholds for frame-to-frame stability scoring, in
	// normalized coordinate units. Below LowMovement a segment is
	// stable; at or above HighMovement it is treated as occluded.
	LowMovement  float64
	HighMovement float64

	// DepthOcclusion is the z-gap between adjacent fingertips beyond
	// which the further-back finger is flagged occluded.
	DepthOcclusion float64

	// Visibility floors per assessment type.
	FingerMinVisibility float64
	WristMinVisibility  float64

	// MinSegmentConfidence is the floor below which no angle is
	// computed for a segment in a frame.
	MinSegmentConfidence float64

	// PoseMinVisibility is the minimum visibility for the pose wrist
	// and elbow landmarks used in laterality resolution.
	PoseMinVisibility float64

	// LateralityMargin is the minimum farther/closer wrist-distance
	// ratio required to lock a side; near-ties stay unresolved.
	LateralityMargin float64

	// DeadbandDeg is the half-width in degrees of the neutral zone
	// around zero deflection.
	DeadbandDeg float64

	// MaxFrameDeltaDeg is the largest plausible angle change between
	// consecutive frames at the nominal capture rate.
	MaxFrameDeltaDeg float64

	// PersistenceFrames is the number of consecutive agreeing frames
	// required to accept a jump beyond MaxFrameDeltaDeg as genuine
	// fast movement.
	PersistenceFrames int

	// HistorySize bounds the rolling window of accepted angles kept
	// per segment.
	HistorySize int

	// KapandjiContact is the thumb-tip contact distance on the
	// normalized hand scale (wrist to middle MCP = 1.0).
	KapandjiContact float64
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		LowMovement:          0.02,
		HighMovement:         0.15,
		DepthOcclusion:       0.05,
		FingerMinVisibility:  0.70,
		WristMinVisibility:   0.80,
		MinSegmentConfidence: 0.50,
		PoseMinVisibility:    0.50,
		LateralityMargin:     1.2,
		DeadbandDeg:          4.0,
		MaxFrameDeltaDeg:     30.0,
		PersistenceFrames:    3,
		HistorySize:          5,
		KapandjiContact:      0.25,
	}
}

// MinVisibility returns the visibility floor for the assessment type.
func (c Config) MinVisibility(t AssessmentType) float64 {
	if t == AssessWrist {
		return c.WristMinVisibility
	}
	return c.FingerMinVisibility
}
