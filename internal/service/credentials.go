package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	"github.com/yourusername/fmauth-adapter/internal/domain/repository"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
)

// CredentialService verifies email/password sign-ins against the
// password layout of the remote store. It is separate from the adapter
// surface: the framework's credentials provider calls it directly.
type CredentialService struct {
	credentials repository.UserCredentialRepository
}

func NewCredentialService(credentials repository.UserCredentialRepository) (*CredentialService, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential repository is required")
	}
	return &CredentialService{credentials: credentials}, nil
}

// VerifyCredentials returns the user when the password matches the
// stored bcrypt hash. Unknown email, missing hash and wrong password all
// return ErrInvalidCredentials.
func (s *CredentialService) VerifyCredentials(ctx context.Context, email, password string) (*entity.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}

	user, hash, err := s.credentials.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
