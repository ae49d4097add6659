package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// SessionRepository stores sessions in the system of record. It is only
// consulted when no cache is configured; with a cache, sessions are
// cache-resident and this repository is bypassed entirely.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) (*entity.Session, error)
	GetByToken(ctx context.Context, sessionToken string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session) (*entity.Session, error)
	Delete(ctx context.Context, sessionToken string) error
}
