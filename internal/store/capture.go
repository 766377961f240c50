package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/airbloom/internal/trajectory"
)

// OutcomePending marks a capture whose speech result has not arrived.
const OutcomePending = "pending"

// Capture is a recognised loop together with the speech it armed.
type Capture struct {
	ID         string             `json:"id"`
	CentroidX  float64            `json:"centroid_x"`
	CentroidY  float64            `json:"centroid_y"`
	Points     int                `json:"points"`
	Path       []trajectory.Point `json:"path,omitempty"`
	Roundness  float64            `json:"roundness"`
	Transcript string             `json:"transcript"`
	Outcome    string             `json:"outcome"`
	CreatedAt  time.Time          `json:"created_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// CaptureRepository stores captures.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create inserts c as pending. Points defaults to len(c.Path).
func (r *CaptureRepository) Create(c *Capture) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Points == 0 {
		c.Points = len(c.Path)
	}
	c.Outcome = OutcomePending

	path, err := json.Marshal(c.Path)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO captures (id, centroid_x, centroid_y, points, path, roundness, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CentroidX, c.CentroidY, c.Points, string(path), c.Roundness, c.Outcome, c.CreatedAt,
	)
	return err
}

// Finish records the speech result for a capture.
func (r *CaptureRepository) Finish(id, transcript, outcome string) error {
	result, err := r.db.Exec(
		`UPDATE captures SET transcript = ?, outcome = ?, finished_at = ? WHERE id = ?`,
		transcript, outcome, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

const captureColumns = `id, centroid_x, centroid_y, points, path, roundness, transcript, outcome, created_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (*Capture, error) {
	c := &Capture{}
	var path string
	var finished sql.NullTime

	err := row.Scan(&c.ID, &c.CentroidX, &c.CentroidY, &c.Points, &path,
		&c.Roundness, &c.Transcript, &c.Outcome, &c.CreatedAt, &finished)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(path), &c.Path); err != nil {
		return nil, err
	}
	if finished.Valid {
		c.FinishedAt = &finished.Time
	}
	return c, nil
}

// GetByID retrieves a capture including its path.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c, err := scanCapture(r.db.QueryRow(`SELECT `+captureColumns+` FROM captures WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns the most recent captures, newest first. Paths are omitted.
func (r *CaptureRepository) List(limit int) ([]*Capture, error) {
	rows, err := r.db.Query(
		`SELECT `+captureColumns+` FROM captures ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	captures := []*Capture{}
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		c.Path = nil
		captures = append(captures, c)
	}
	return captures, rows.Err()
}
