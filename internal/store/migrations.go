package store

// runMigrations creates the schema. Every statement is idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per recognised loop and its speech capture.
		`CREATE TABLE IF NOT EXISTS captures (
			id TEXT PRIMARY KEY,
			centroid_x REAL NOT NULL,
			centroid_y REAL NOT NULL,
			points INTEGER NOT NULL,
			path TEXT NOT NULL DEFAULT '[]',
			roundness REAL NOT NULL DEFAULT 0,
			transcript TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Generated flowers, planted at the loop centroid.
		`CREATE TABLE IF NOT EXISTS flowers (
			id TEXT PRIMARY KEY,
			capture_id TEXT REFERENCES captures(id) ON DELETE SET NULL,
			phrase TEXT NOT NULL,
			name TEXT NOT NULL,
			spec TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			source TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_flowers_created_at ON flowers(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_flowers_capture_id ON flowers(capture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_captures_created_at ON captures(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
