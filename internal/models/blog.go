package models

import "time"

// Blog represents a single blog post owned by a user.
type Blog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	BlogImage *string   `json:"blogImage,omitempty"`
	Author    string    `json:"author,omitempty"` // Username of the owning user, filled by joins
	CreatedAt time.Time `json:"createdAt"`
}
