package rom

import (
	"testing"
)

func acceptedAngle(seg Segment, deg float64, dir Direction) AngleResult {
	return AngleResult{
		Segment:    seg,
		Degrees:    deg,
		Direction:  dir,
		Confidence: 1,
		Laterality: LateralityRight,
		Valid:      true,
	}
}

func TestValidator_AnatomicalCeilingRejects(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	// Seed history with a plausible value.
	if ok, _ := v.Validate(acceptedAngle(SegIndexDIP, 60, DirFlexion)); !ok {
		t.Fatal("setup: expected first angle accepted")
	}

	// 120° on a DIP capped at 90° is a tracking error: rejected
	// outright, never clamped.
	ok, reason := v.Validate(acceptedAngle(SegIndexDIP, 120, DirFlexion))
	if ok {
		t.Fatal("expected rejection beyond the physiological ceiling")
	}
	if reason != ReasonAnatomicalLimit {
		t.Errorf("expected anatomical limit reason, got %s", reason)
	}

	// The rejected value must not have entered the rolling history: a
	// follow-up near the seed is still in-band and accepted.
	if ok, reason := v.Validate(acceptedAngle(SegIndexDIP, 65, DirFlexion)); !ok {
		t.Errorf("expected 65° accepted against history of 60°, got rejection (%s)", reason)
	}
}

func TestValidator_ExtensionCeiling(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	// PIP hyperextension beyond 15° is implausible.
	ok, reason := v.Validate(acceptedAngle(SegIndexPIP, 25, DirExtension))
	if ok {
		t.Fatal("expected extension beyond the PIP ceiling rejected")
	}
	if reason != ReasonAnatomicalLimit {
		t.Errorf("expected anatomical limit reason, got %s", reason)
	}
}

func TestValidator_TemporalJumpRejected(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	v.Validate(acceptedAngle(SegWrist, 10, DirFlexion))

	// A 40° single-frame jump exceeds the 30° delta.
	ok, reason := v.Validate(acceptedAngle(SegWrist, 50, DirFlexion))
	if ok {
		t.Fatal("expected single-frame 40° jump rejected")
	}
	if reason != ReasonTemporalDiscontinuity {
		t.Errorf("expected temporal discontinuity, got %s", reason)
	}

	// A return to the previous level is accepted immediately.
	if ok, _ := v.Validate(acceptedAngle(SegWrist, 12, DirFlexion)); !ok {
		t.Error("expected in-band follow-up accepted after an isolated outlier")
	}
}

func TestValidator_PersistenceAcceptsFastMovement(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	v.Validate(acceptedAngle(SegWrist, 10, DirFlexion))

	// The same shifted value repeated for three consecutive frames is
	// genuine fast movement, accepted on the third.
	if ok, _ := v.Validate(acceptedAngle(SegWrist, 50, DirFlexion)); ok {
		t.Fatal("frame 1 of the jump should be rejected")
	}
	if ok, _ := v.Validate(acceptedAngle(SegWrist, 50, DirFlexion)); ok {
		t.Fatal("frame 2 of the jump should still be rejected")
	}
	if ok, _ := v.Validate(acceptedAngle(SegWrist, 50, DirFlexion)); !ok {
		t.Fatal("frame 3 of a persistent jump should be accepted")
	}

	// History now tracks the new level.
	if ok, _ := v.Validate(acceptedAngle(SegWrist, 55, DirFlexion)); !ok {
		t.Error("expected follow-up near the new level accepted")
	}
}

func TestValidator_PendingRunBrokenByDisagreement(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	v.Validate(acceptedAngle(SegWrist, 0, DirFlexion))

	// Two disagreeing outliers never corroborate each other.
	v.Validate(acceptedAngle(SegWrist, 50, DirFlexion))
	v.Validate(acceptedAngle(SegWrist, 50, DirExtension)) // signed -50, far from +50

	if ok, _ := v.Validate(acceptedAngle(SegWrist, 50, DirFlexion)); ok {
		t.Error("a broken pending run must restart the persistence count")
	}
}

func TestValidator_SignedDeltaAcrossNeutral(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	// 20° flexion to 20° extension is a 40° signed swing.
	v.Validate(acceptedAngle(SegWrist, 20, DirFlexion))

	ok, reason := v.Validate(acceptedAngle(SegWrist, 20, DirExtension))
	if ok {
		t.Fatal("expected a 40° signed swing rejected")
	}
	if reason != ReasonTemporalDiscontinuity {
		t.Errorf("expected temporal discontinuity, got %s", reason)
	}
}

func TestValidator_InvalidInputRejected(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	ok, reason := v.Validate(AngleResult{Segment: SegWrist})
	if ok {
		t.Fatal("expected invalid angle rejected")
	}
	if reason != ReasonInsufficientLandmarks {
		t.Errorf("expected insufficient landmarks, got %s", reason)
	}
}

func TestValidator_SegmentsAreIndependent(t *testing.T) {
	v := NewValidator(DefaultConfig(), DefaultJointLimits())

	v.Validate(acceptedAngle(SegWrist, 10, DirFlexion))

	// A fresh segment has no history; any in-limit value is accepted.
	if ok, _ := v.Validate(acceptedAngle(SegIndexPIP, 70, DirFlexion)); !ok {
		t.Error("expected first value of an unrelated segment accepted")
	}
}
