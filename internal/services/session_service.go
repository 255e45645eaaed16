package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/inkwell-be/internal/models"
)

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	Create(userID int64) (models.Session, error)
	Get(token string) (models.Session, error)
	Delete(token string) error
	DeleteExpired() (int64, error)
}

// SessionService manages server-side login sessions backed by the
// sessions table. Tokens are opaque, so logout revokes them immediately.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

// Create opens a new session for the given user.
func (s *SessionService) Create(userID int64) (models.Session, error) {
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}

	_, err := s.db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		session.Token, session.UserID, session.ExpiresAt)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Get looks up a live session by its token. Expired sessions are treated
// the same as missing ones.
func (s *SessionService) Get(token string) (models.Session, error) {
	var session models.Session
	row := s.db.QueryRow("SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?", token)
	err := row.Scan(&session.Token, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete destroys a session, logging the user out.
func (s *SessionService) Delete(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (s *SessionService) DeleteExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
