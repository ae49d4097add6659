package entity

import "time"

// User is the identity record the authentication framework operates on.
// The id is assigned by the remote store on create and never changes
// afterwards. EmailVerified is nil while the address is unverified; the
// remote store persists it as an ISO-8601 string with "" meaning null.
// JSON tags match the framework's field names because serialized users
// are stored in the cache as-is.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Image         string     `json:"image"`
	EmailVerified *time.Time `json:"emailVerified"`
}
