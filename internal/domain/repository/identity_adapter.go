package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// IdentityAdapter is the persistence contract the authentication
// framework calls. Input/output shapes are fixed by the framework: every
// lookup that finds nothing returns (nil, nil), never an error. Store
// and transport failures propagate unmodified.
type IdentityAdapter interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*entity.User, error)
	UpdateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) error

	LinkAccount(ctx context.Context, account *entity.Account) error
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	CreateSession(ctx context.Context, session *entity.Session) (*entity.Session, error)
	GetSessionAndUser(ctx context.Context, sessionToken string) (*entity.Session, *entity.User, error)
	UpdateSession(ctx context.Context, session *entity.Session) (*entity.Session, error)
	DeleteSession(ctx context.Context, sessionToken string) error

	CreateVerificationToken(ctx context.Context, token *entity.VerificationToken) (*entity.VerificationToken, error)
	UseVerificationToken(ctx context.Context, identifier, token string) (*entity.VerificationToken, error)

	// RefreshUserCache is the sign-in hook: it re-reads the canonical
	// user from the system of record and republishes it to the cache,
	// independent of the per-call cache-aside logic.
	RefreshUserCache(ctx context.Context, userID string) error
}
