package service

import "errors"

// Adapter flow specific errors.
var (
	// ErrInvalidCredentials is returned on any credential check failure,
	// without revealing whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid_credentials")
)
