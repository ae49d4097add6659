package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// UserRepository stores users in the system of record. Create and Update
// return the stored copy re-read from the store so the caller sees the
// store-assigned id and any field normalization. Lookups return
// apperrors.ErrNotFound when no user matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}
