package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airbloom/internal/bloom"
)

// Flower is a planted flower.
type Flower struct {
	ID        string       `json:"id"`
	CaptureID string       `json:"capture_id,omitempty"`
	Phrase    string       `json:"phrase"`
	Spec      bloom.Flower `json:"spec"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	CreatedAt time.Time    `json:"created_at"`
}

// FlowerRepository stores flowers.
type FlowerRepository struct {
	db *sql.DB
}

// Flowers returns the flower repository for this store.
func (s *Store) Flowers() *FlowerRepository {
	return &FlowerRepository{db: s.db}
}

// Create inserts f, assigning an ID and timestamp when missing.
func (r *FlowerRepository) Create(f *Flower) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	spec, err := json.Marshal(f.Spec)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO flowers (id, capture_id, phrase, name, spec, x, y, source, created_at)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CaptureID, f.Phrase, f.Spec.Name, string(spec), f.X, f.Y, f.Spec.Source, f.CreatedAt,
	)
	return err
}

const flowerColumns = `id, capture_id, phrase, spec, x, y, created_at`

func scanFlower(row rowScanner) (*Flower, error) {
	f := &Flower{}
	var captureID sql.NullString
	var spec string

	if err := row.Scan(&f.ID, &captureID, &f.Phrase, &spec, &f.X, &f.Y, &f.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(spec), &f.Spec); err != nil {
		return nil, err
	}
	f.CaptureID = captureID.String
	return f, nil
}

// GetByID retrieves a flower by its ID.
func (r *FlowerRepository) GetByID(id string) (*Flower, error) {
	f, err := scanFlower(r.db.QueryRow(`SELECT `+flowerColumns+` FROM flowers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// List returns the most recent flowers, newest first.
func (r *FlowerRepository) List(limit int) ([]*Flower, error) {
	rows, err := r.db.Query(
		`SELECT `+flowerColumns+` FROM flowers ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flowers := []*Flower{}
	for rows.Next() {
		f, err := scanFlower(rows)
		if err != nil {
			return nil, err
		}
		flowers = append(flowers, f)
	}
	return flowers, rows.Err()
}

// Delete removes a flower.
func (r *FlowerRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM flowers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of planted flowers.
func (r *FlowerRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM flowers`).Scan(&n)
	return n, err
}
