package farmers

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles farmer profile and crop persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a farmers repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "farmers").Logger(),
	}
}

// CreateProfile inserts the farmer row for a user account.
func (r *Repository) CreateProfile(userID int64, language string) error {
	if language == "" {
		language = "en"
	}
	_, err := r.db.Exec(`INSERT INTO farmers (user_id, language) VALUES (?, ?)`, userID, language)
	if err != nil {
		return fmt.Errorf("failed to create farmer profile: %w", err)
	}
	return nil
}

// GetProfileByUserID returns the profile for a user, or nil when missing.
func (r *Repository) GetProfileByUserID(userID int64) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(`SELECT id, user_id, language FROM farmers WHERE user_id = ?`, userID).
		Scan(&p.ID, &p.UserID, &p.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get farmer profile: %w", err)
	}
	return &p, nil
}

// UpdateLanguage changes the farmer's preferred language.
func (r *Repository) UpdateLanguage(userID int64, language string) error {
	_, err := r.db.Exec(`UPDATE farmers SET language = ? WHERE user_id = ?`, language, userID)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return nil
}

// ListProfiles returns all farmer profiles, for the advisory agent.
func (r *Repository) ListProfiles() ([]Profile, error) {
	rows, err := r.db.Query(`SELECT id, user_id, language FROM farmers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Language); err != nil {
			return nil, fmt.Errorf("failed to scan farmer profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ListAdvisoryTargets returns every farmer with the coordinates from the
// linked user account. Coordinates are zero when the account has none.
func (r *Repository) ListAdvisoryTargets() ([]AdvisoryTarget, error) {
	rows, err := r.db.Query(`
		SELECT f.id, f.user_id, COALESCE(u.latitude, 0), COALESCE(u.longitude, 0)
		FROM farmers f
		JOIN users u ON u.id = f.user_id
		ORDER BY f.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list advisory targets: %w", err)
	}
	defer rows.Close()

	var targets []AdvisoryTarget
	for rows.Next() {
		var t AdvisoryTarget
		if err := rows.Scan(&t.FarmerID, &t.UserID, &t.Latitude, &t.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan advisory target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// AddCrop registers a crop for a farmer.
func (r *Repository) AddCrop(c *Crop) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO crops (farmer_id, name, quantity_kg, planted_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.FarmerID, c.Name, c.QuantityKg, c.PlantedDate, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to add crop: %w", err)
	}
	return res.LastInsertId()
}

// ListCrops returns a farmer's crops, newest first.
func (r *Repository) ListCrops(farmerID int64) ([]Crop, error) {
	rows, err := r.db.Query(`
		SELECT id, farmer_id, name, quantity_kg, COALESCE(planted_date, ''), created_at
		FROM crops WHERE farmer_id = ? ORDER BY created_at DESC, id DESC
	`, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crops: %w", err)
	}
	defer rows.Close()

	var crops []Crop
	for rows.Next() {
		var c Crop
		if err := rows.Scan(&c.ID, &c.FarmerID, &c.Name, &c.QuantityKg, &c.PlantedDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, c)
	}
	return crops, rows.Err()
}

// GetCrop returns one crop scoped to its owner, or nil when missing.
func (r *Repository) GetCrop(id, farmerID int64) (*Crop, error) {
	var c Crop
	err := r.db.QueryRow(`
		SELECT id, farmer_id, name, quantity_kg, COALESCE(planted_date, ''), created_at
		FROM crops WHERE id = ? AND farmer_id = ?
	`, id, farmerID).Scan(&c.ID, &c.FarmerID, &c.Name, &c.QuantityKg, &c.PlantedDate, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}
	return &c, nil
}

// UpdateCrop updates a crop's quantity and planted date, scoped to its owner.
// Returns false when no row matched.
func (r *Repository) UpdateCrop(id, farmerID int64, quantityKg float64, plantedDate string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE crops SET quantity_kg = ?, planted_date = ? WHERE id = ? AND farmer_id = ?
	`, quantityKg, plantedDate, id, farmerID)
	if err != nil {
		return false, fmt.Errorf("failed to update crop: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// DeleteCrop removes a crop scoped to its owner. Returns false when no row matched.
func (r *Repository) DeleteCrop(id, farmerID int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM crops WHERE id = ? AND farmer_id = ?`, id, farmerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete crop: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}
