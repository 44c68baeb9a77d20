package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/clinometric/handrom/internal/rom"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// AssessmentStatus represents the lifecycle state of an assessment.
type AssessmentStatus string

const (
	// StatusPending is a created assessment that has not been recorded yet.
	StatusPending AssessmentStatus = "pending"
	// StatusRecording is an assessment with a capture in progress.
	StatusRecording AssessmentStatus = "recording"
	// StatusCompleted is an assessment with a stored result.
	StatusCompleted AssessmentStatus = "completed"
)

// Assessment represents one assessment session stored in the database.
type Assessment struct {
	ID         string
	PatientRef string
	Type       rom.AssessmentType
	Status     AssessmentStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AssessmentRepository provides CRUD operations for assessments and
// their results.
type AssessmentRepository struct {
	db *sql.DB
}

// Assessments returns the assessment repository for this store.
func (s *Store) Assessments() *AssessmentRepository {
	return &AssessmentRepository{db: s.db}
}

// Create inserts a new assessment into the database.
func (r *AssessmentRepository) Create(a *Assessment) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusPending
	}

	_, err := r.db.Exec(
		`INSERT INTO assessments (id, patient_ref, type, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PatientRef, string(a.Type), string(a.Status), a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves an assessment by its ID.
func (r *AssessmentRepository) GetByID(id string) (*Assessment, error) {
	a := &Assessment{}
	var typ, status string

	err := r.db.QueryRow(
		`SELECT id, patient_ref, type, status, notes, created_at, updated_at
		 FROM assessments WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.PatientRef, &typ, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Type = rom.AssessmentType(typ)
	a.Status = AssessmentStatus(status)
	return a, nil
}

// List retrieves all assessments, newest first.
func (r *AssessmentRepository) List() ([]*Assessment, error) {
	return r.list(
		`SELECT id, patient_ref, type, status, notes, created_at, updated_at
		 FROM assessments ORDER BY created_at DESC`,
	)
}

// ListByPatient retrieves the assessments of one patient, newest first.
func (r *AssessmentRepository) ListByPatient(patientRef string) ([]*Assessment, error) {
	return r.list(
		`SELECT id, patient_ref, type, status, notes, created_at, updated_at
		 FROM assessments WHERE patient_ref = ? ORDER BY created_at DESC`,
		patientRef,
	)
}

func (r *AssessmentRepository) list(query string, args ...any) ([]*Assessment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []*Assessment
	for rows.Next() {
		a := &Assessment{}
		var typ, status string

		err := rows.Scan(&a.ID, &a.PatientRef, &typ, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}

		a.Type = rom.AssessmentType(typ)
		a.Status = AssessmentStatus(status)
		assessments = append(assessments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assessments, nil
}

// Update updates an existing assessment's status and notes.
func (r *AssessmentRepository) Update(a *Assessment) error {
	a.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE assessments SET patient_ref = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		a.PatientRef, string(a.Status), a.Notes, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an assessment and its result from the database.
func (r *AssessmentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveResult stores the session result for an assessment and marks it
// completed. Saving again replaces the previous result.
func (r *AssessmentRepository) SaveResult(assessmentID string, res rom.SessionRomResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rom_results WHERE assessment_id = ?`, assessmentID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM rom_segments WHERE assessment_id = ?`, assessmentID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO rom_results (assessment_id, laterality, kapandji, quality_score,
		 frames_accepted, frames_rejected, frames_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		assessmentID, string(res.Laterality), res.Kapandji, res.QualityScore,
		res.FramesAccepted, res.FramesRejected, res.FramesTotal,
	)
	if err != nil {
		return err
	}

	for segment, seg := range res.PerSegment {
		_, err := tx.Exec(
			`INSERT INTO rom_segments (assessment_id, segment, max_flexion, max_extension, total_rom)
			 VALUES (?, ?, ?, ?, ?)`,
			assessmentID, string(segment), seg.MaxFlexion, seg.MaxExtension, seg.TotalRom,
		)
		if err != nil {
			return err
		}
	}

	result, err := tx.Exec(
		`UPDATE assessments SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusCompleted), time.Now(), assessmentID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// GetResult retrieves the stored session result for an assessment.
func (r *AssessmentRepository) GetResult(assessmentID string) (*rom.SessionRomResult, error) {
	res := &rom.SessionRomResult{PerSegment: map[rom.Segment]rom.SegmentRom{}}
	var laterality string

	err := r.db.QueryRow(
		`SELECT laterality, kapandji, quality_score, frames_accepted, frames_rejected, frames_total
		 FROM rom_results WHERE assessment_id = ?`,
		assessmentID,
	).Scan(&laterality, &res.Kapandji, &res.QualityScore,
		&res.FramesAccepted, &res.FramesRejected, &res.FramesTotal)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res.Laterality = rom.Laterality(laterality)

	rows, err := r.db.Query(
		`SELECT segment, max_flexion, max_extension, total_rom
		 FROM rom_segments WHERE assessment_id = ?`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var segment string
		var seg rom.SegmentRom

		if err := rows.Scan(&segment, &seg.MaxFlexion, &seg.MaxExtension, &seg.TotalRom); err != nil {
			return nil, err
		}
		res.PerSegment[rom.Segment(segment)] = seg
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}
