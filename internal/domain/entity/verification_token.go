package entity

import "time"

// VerificationToken is a single-use credential proving control of an
// identifier (typically an email address). Its composite key is
// (Identifier, Token); consuming it deletes it, so a second consume for
// the same pair observes "not found".
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"token"`
	Expires    time.Time `json:"expires"`
}
