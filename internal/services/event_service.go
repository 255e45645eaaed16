package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(eventType, level, message string, userID *int64)
	Recent(limit int) ([]models.Event, error)
}

// EventService keeps an audit trail of account and blog activity.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// Record logs a new event to the database. Failures are logged and
// swallowed; the audit trail never fails the operation that produced it.
func (s *EventService) Record(eventType, level, message string, userID *int64) {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// Recent retrieves the most recent events from the database.
func (s *EventService) Recent(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, user_id, created_at FROM events ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
