package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles user and session persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates an auth repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "auth").Logger(),
	}
}

// CreateUser inserts a user row and returns its id.
// Duplicate usernames surface as ErrUsernameTaken.
func (r *Repository) CreateUser(u *User) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO users (username, password_hash, role, contact, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.Username, u.PasswordHash, u.Role, u.Contact, u.Latitude, u.Longitude, time.Now().Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// GetUserByUsername returns the user with the given username, or nil when
// no such user exists.
func (r *Repository) GetUserByUsername(username string) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, username, password_hash, role, contact, latitude, longitude, created_at
		FROM users WHERE username = ?
	`, username))
}

// GetUserByID returns the user with the given id, or nil when missing.
func (r *Repository) GetUserByID(id int64) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, username, password_hash, role, contact, latitude, longitude, created_at
		FROM users WHERE id = ?
	`, id))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Contact,
		&u.Latitude, &u.Longitude, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// CountUsersByRole returns the number of users per role. The seeder logs
// this as its closing summary.
func (r *Repository) CountUsersByRole() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// CreateSession inserts a session row.
func (r *Repository) CreateSession(s *Session) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns a session by token, or nil when it does not exist.
// Expiry is the caller's concern.
func (r *Repository) GetSession(token string) (*Session, error) {
	var s Session
	err := r.db.QueryRow(`
		SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Idempotent.
func (r *Repository) DeleteSession(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns how
// many were swept. Run hourly by the session reaper job.
func (r *Repository) DeleteExpiredSessions() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
