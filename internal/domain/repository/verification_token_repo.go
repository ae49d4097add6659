package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// VerificationTokenRepository stores single-use verification tokens in
// the system of record. Consume reads and deletes the token in one
// operation; a second Consume for the same pair returns
// apperrors.ErrNotFound.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *entity.VerificationToken) error
	Consume(ctx context.Context, identifier, token string) (*entity.VerificationToken, error)
}
