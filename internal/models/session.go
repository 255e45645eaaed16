package models

import "time"

// Session is a server-side login session, keyed by an opaque token held
// in the client's cookie. It carries only the user id; handlers load the
// user row fresh when they need it.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
