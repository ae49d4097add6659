package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// UserCredentialRepository reads password-auth user records from the
// dedicated password layout. The hash never leaves the service layer.
type UserCredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, string, error)
}
