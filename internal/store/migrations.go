package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Assessments table - one row per recorded assessment session
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			patient_ref TEXT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('fingers', 'wrist', 'thumb')),
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'recording', 'completed')),
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// ROM results table - session-level outcome of a completed assessment
		`CREATE TABLE IF NOT EXISTS rom_results (
			assessment_id TEXT PRIMARY KEY REFERENCES assessments(id) ON DELETE CASCADE,
			laterality TEXT NOT NULL,
			kapandji INTEGER NOT NULL DEFAULT 0,
			quality_score INTEGER NOT NULL,
			frames_accepted INTEGER NOT NULL,
			frames_rejected INTEGER NOT NULL,
			frames_total INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// ROM segments table - per-segment maxima of a result
		`CREATE TABLE IF NOT EXISTS rom_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
			segment TEXT NOT NULL,
			max_flexion REAL NOT NULL,
			max_extension REAL NOT NULL,
			total_rom REAL NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_rom_segments_assessment_id ON rom_segments(assessment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_patient_ref ON assessments(patient_ref)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
