package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service implements registration, login and session authentication on top
// of the repository.
type Service struct {
	repo       *Repository
	sessionTTL time.Duration
	log        zerolog.Logger
}

// NewService creates the auth service. sessionTTL bounds how long a login
// stays valid.
func NewService(repo *Repository, sessionTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		log:        log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a user account. Username is trimmed and lowercased.
func (s *Service) Register(username, password, role, contact string, lat, lng float64) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) < 3 {
		return nil, fmt.Errorf("username must be at least 3 characters")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	if !IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Contact:      contact,
		Latitude:     lat,
		Longitude:    lng,
	}
	id, err := s.repo.CreateUser(user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	user.CreatedAt = time.Now().Unix()

	s.log.Info().Str("username", username).Str("role", role).Int64("user_id", id).Msg("User registered")
	return user, nil
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(username, password string) (*Session, *User, error) {
	user, err := s.repo.GetUserByUsername(strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !verifyPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	now := time.Now()
	session := &Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.sessionTTL).Unix(),
	}
	if err := s.repo.CreateSession(session); err != nil {
		return nil, nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("User logged in")
	return session, user, nil
}

// Logout deletes the session for a token.
func (s *Service) Logout(token string) error {
	return s.repo.DeleteSession(token)
}

// Authenticate resolves a bearer token to its user. Expired or unknown
// tokens return ErrSessionInvalid.
func (s *Service) Authenticate(token string) (*User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.repo.GetSession(token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ExpiresAt < time.Now().Unix() {
		return nil, ErrSessionInvalid
	}

	user, err := s.repo.GetUserByID(session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionInvalid
	}
	return user, nil
}

// ReapExpiredSessions sweeps expired sessions, for the hourly cron job.
func (s *Service) ReapExpiredSessions() (int64, error) {
	n, err := s.repo.DeleteExpiredSessions()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Expired sessions reaped")
	}
	return n, nil
}
