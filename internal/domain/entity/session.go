package entity

import "time"

// Session is a framework sign-in session. SessionToken doubles as the
// session's id and is the lookup key everywhere. Nothing enforces
// Expires at the storage layer; callers decide what to do with an
// expired session.
type Session struct {
	ID           string    `json:"id"`
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}
