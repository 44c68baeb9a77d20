package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// SteadinessGate decides when the patient has settled into position so
// a recording can begin. It uses frame differencing with Gaussian blur
// for noise reduction: a frame counts as still when the fraction of
// changed pixels stays below the threshold, and the gate opens after a
// run of consecutive still frames.
type SteadinessGate struct {
	maxChangePercent float64
	settleFrames     int
	prevGray         gocv.Mat
	initialized      bool
	streak           int
	mu               sync.Mutex
}

const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25

	// DefaultMaxChangePercent is the largest per-frame pixel change,
	// in percent, still counted as holding still.
	DefaultMaxChangePercent = 1.0
	// DefaultSettleFrames is the run of still frames required before
	// the gate opens. One second at the default capture rate.
	DefaultSettleFrames = 30
)

// NewSteadinessGate creates a gate with the given still-frame change
// ceiling (percent of pixels) and required settle run length.
// Non-positive arguments fall back to the defaults.
func NewSteadinessGate(maxChangePercent float64, settleFrames int) *SteadinessGate {
	if maxChangePercent <= 0 {
		maxChangePercent = DefaultMaxChangePercent
	}
	if settleFrames <= 0 {
		settleFrames = DefaultSettleFrames
	}
	return &SteadinessGate{
		maxChangePercent: maxChangePercent,
		settleFrames:     settleFrames,
		prevGray:         gocv.NewMat(),
	}
}

// Observe feeds one frame to the gate and reports whether the settle
// run is complete, plus the measured pixel change percentage. The
// first frame establishes the baseline and never counts as still.
//
// Algorithm:
//  1. Convert frame to grayscale
//  2. Apply Gaussian blur (21x21) to reduce noise
//  3. If first frame, store as baseline and return
//  4. Absolute difference with the previous frame, thresholded at 25
//  5. changePercent = non-zero pixels / total pixels
//  6. Below the ceiling extends the still streak; at or above resets it
func (g *SteadinessGate) Observe(frame *gocv.Mat) (settled bool, changePercent float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		g.streak = 0
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.initialized {
		blurred.CopyTo(&g.prevGray)
		g.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent = float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&g.prevGray)

	if changePercent < g.maxChangePercent {
		g.streak++
	} else {
		g.streak = 0
	}

	return g.streak >= g.settleFrames, changePercent
}

// Settled reports whether the current still streak satisfies the gate.
func (g *SteadinessGate) Settled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.streak >= g.settleFrames
}

// Reset clears the gate state so it can watch for a new settle run,
// for example between repetitions of an assessment.
func (g *SteadinessGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
	g.streak = 0
}

// Close releases resources used by the gate.
func (g *SteadinessGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
	g.streak = 0
}
