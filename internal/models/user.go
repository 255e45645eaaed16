package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	MiddleName   string    `json:"middleName,omitempty"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Role         string    `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	Pronouns     string    `json:"pronouns,omitempty"`
	ProfileImage *string   `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
