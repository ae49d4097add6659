package repository

import (
	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// IdentityCache is the typed cache for identity entities. Implementations
// keep the secondary indices (email -> user id, user id -> session key,
// user id -> account key) in step with the primary entries; those are
// independent writes with no rollback if a later one fails. Entries carry
// no TTL: expired sessions and tokens stay cached until explicitly
// deleted, which is an accepted staleness window of this design.
//
// Lookups return apperrors.ErrNotFound on a cache miss.
type IdentityCache interface {
	SetUser(user *entity.User) error
	GetUser(id string) (*entity.User, error)
	GetUserByEmail(email string) (*entity.User, error)
	// DeleteUser removes the user entry together with its email index,
	// session and account entries.
	DeleteUser(user *entity.User) error

	SetAccount(account *entity.Account) error
	GetAccount(provider, providerAccountID string) (*entity.Account, error)
	DeleteAccount(provider, providerAccountID, userID string) error

	SetSession(session *entity.Session) error
	GetSession(sessionToken string) (*entity.Session, error)
	DeleteSession(sessionToken string) error

	SetVerificationToken(token *entity.VerificationToken) error
	// ConsumeVerificationToken reads and deletes the token. A stored
	// token whose value does not match returns apperrors.ErrNotFound.
	ConsumeVerificationToken(identifier, token string) (*entity.VerificationToken, error)
}
