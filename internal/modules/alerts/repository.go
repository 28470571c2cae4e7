package alerts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles alert persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates an alerts repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "alerts").Logger(),
	}
}

// Insert stores an alert and returns it with id and timestamp filled in.
func (r *Repository) Insert(userID int64, message, severity string) (*Alert, error) {
	now := time.Now().Unix()
	res, err := r.db.Exec(`
		INSERT INTO alerts (user_id, message, severity, seen, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, userID, message, severity, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read alert id: %w", err)
	}
	return &Alert{ID: id, UserID: userID, Message: message, Severity: severity, CreatedAt: now}, nil
}

// List returns a user's alerts, newest first. unseenOnly filters out
// acknowledged ones.
func (r *Repository) List(userID int64, unseenOnly bool) ([]Alert, error) {
	query := `
		SELECT id, user_id, message, severity, seen, created_at
		FROM alerts WHERE user_id = ?
	`
	if unseenOnly {
		query += ` AND seen = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		var seen int
		if err := rows.Scan(&a.ID, &a.UserID, &a.Message, &a.Severity, &seen, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Seen = seen != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkSeen acknowledges one alert, scoped to its owner.
func (r *Repository) MarkSeen(id, userID int64) (bool, error) {
	res, err := r.db.Exec(`UPDATE alerts SET seen = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// MarkAllSeen acknowledges every alert for a user and returns the count.
func (r *Repository) MarkAllSeen(userID int64) (int64, error) {
	res, err := r.db.Exec(`UPDATE alerts SET seen = 1 WHERE user_id = ? AND seen = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark alerts seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// CountUnseen returns the number of unacknowledged alerts for a user.
func (r *Repository) CountUnseen(userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE user_id = ? AND seen = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen alerts: %w", err)
	}
	return n, nil
}
