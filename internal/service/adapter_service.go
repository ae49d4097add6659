package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	"github.com/yourusername/fmauth-adapter/internal/domain/repository"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
)

// AdapterService implements repository.IdentityAdapter by composing the
// remote-store repositories with an optional identity cache.
//
// Reads are cache-aside: with a cache configured the cache is consulted
// first, and on a miss the remote result is written back before being
// returned. Writes go to the remote store first and are then mirrored
// into the cache. Sessions are the exception: with a cache configured
// they are cache-resident only and the remote store is never touched for
// them, so session state is lost if the cache is flushed. That trade-off
// is deliberate (high churn, low durability requirement).
//
// Cache failures are fail-open: they are logged and treated as a miss so
// the remote store stays authoritative. Remote-store errors propagate to
// the caller unmodified.
type AdapterService struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	tokens   repository.VerificationTokenRepository
	cache    repository.IdentityCache
}

// NewAdapterService wires the adapter. cache may be nil, in which case
// every operation goes to the remote store.
func NewAdapterService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	tokens repository.VerificationTokenRepository,
	cache repository.IdentityCache,
) (*AdapterService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("verification token repository is required")
	}
	return &AdapterService{
		users:    users,
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		cache:    cache,
	}, nil
}

// CreateUser inserts the user into the remote store, which assigns the
// id, and mirrors the stored record into the cache.
func (s *AdapterService) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.cacheUser(created), nil
}

func (s *AdapterService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if s.cache != nil {
		if user := s.cachedUser(s.cache.GetUser(id)); user != nil {
			return user, nil
		}
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.cacheUser(user), nil
}

func (s *AdapterService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.cache != nil {
		if user := s.cachedUser(s.cache.GetUserByEmail(email)); user != nil {
			return user, nil
		}
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.cacheUser(user), nil
}

func (s *AdapterService) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*entity.User, error) {
	if s.cache != nil {
		account, err := s.cache.GetAccount(provider, providerAccountID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AdapterService] cache read failed for account %s/%s: %v", provider, providerAccountID, err)
		}
		if err == nil {
			if user := s.cachedUser(s.cache.GetUser(account.UserID)); user != nil {
				return user, nil
			}
		}
	}

	account, err := s.accounts.GetByProvider(ctx, provider, providerAccountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, account.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.cacheUser(user), nil
}

// UpdateUser patches the user in the remote store and republishes the
// re-read record to the cache. The id is immutable: an update without
// one is rejected, and the id itself is never part of the patch.
func (s *AdapterService) UpdateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user id is required for update", apperrors.ErrValidation)
	}
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.cacheUser(updated), nil
}

func (s *AdapterService) DeleteUser(ctx context.Context, id string) error {
	// Read the user first: the cache purge needs the email index key.
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if s.cache != nil && user != nil {
		if err := s.cache.DeleteUser(user); err != nil {
			log.Printf("[AdapterService] cache purge failed for user %s: %v", id, err)
		}
	}
	return nil
}

func (s *AdapterService) LinkAccount(ctx context.Context, account *entity.Account) error {
	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetAccount(account); err != nil {
			log.Printf("[AdapterService] cache write failed for account %s/%s: %v", account.Provider, account.ProviderAccountID, err)
		}
	}
	return nil
}

func (s *AdapterService) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	account, err := s.accounts.GetByProvider(ctx, provider, providerAccountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.accounts.DeleteByProvider(ctx, provider, providerAccountID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteAccount(provider, providerAccountID, account.UserID); err != nil {
			log.Printf("[AdapterService] cache purge failed for account %s/%s: %v", provider, providerAccountID, err)
		}
	}
	return nil
}

// CreateSession stores the session. With a cache configured the session
// lives only in the cache; otherwise it goes to the remote store.
func (s *AdapterService) CreateSession(ctx context.Context, session *entity.Session) (*entity.Session, error) {
	session.ID = session.SessionToken
	if s.cache != nil {
		if err := s.cache.SetSession(session); err != nil {
			return nil, err
		}
		return session, nil
	}
	return s.sessions.Create(ctx, session)
}

func (s *AdapterService) GetSessionAndUser(ctx context.Context, sessionToken string) (*entity.Session, *entity.User, error) {
	if s.cache != nil {
		session, err := s.cache.GetSession(sessionToken)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		user, err := s.GetUser(ctx, session.UserID)
		if err != nil {
			return nil, nil, err
		}
		if user == nil {
			return nil, nil, nil
		}
		return session, user, nil
	}

	session, err := s.sessions.GetByToken(ctx, sessionToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return session, s.cacheUser(user), nil
}

// UpdateSession merges the non-zero fields of updates into the stored
// session. An unknown session token yields (nil, nil).
func (s *AdapterService) UpdateSession(ctx context.Context, updates *entity.Session) (*entity.Session, error) {
	if s.cache != nil {
		session, err := s.cache.GetSession(updates.SessionToken)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		mergeSession(session, updates)
		if err := s.cache.SetSession(session); err != nil {
			return nil, err
		}
		return session, nil
	}

	session, err := s.sessions.GetByToken(ctx, updates.SessionToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	mergeSession(session, updates)
	return s.sessions.Update(ctx, session)
}

func (s *AdapterService) DeleteSession(ctx context.Context, sessionToken string) error {
	if s.cache != nil {
		return s.cache.DeleteSession(sessionToken)
	}
	err := s.sessions.Delete(ctx, sessionToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

// CreateVerificationToken writes the token to the remote store and
// mirrors it into the cache.
func (s *AdapterService) CreateVerificationToken(ctx context.Context, token *entity.VerificationToken) (*entity.VerificationToken, error) {
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetVerificationToken(token); err != nil {
			log.Printf("[AdapterService] cache write failed for verification token %s: %v", token.Identifier, err)
		}
	}
	return token, nil
}

// UseVerificationToken consumes the token: the remote store deletes it,
// and the cached copy is dropped alongside. A second call for the same
// (identifier, token) pair returns (nil, nil).
func (s *AdapterService) UseVerificationToken(ctx context.Context, identifier, token string) (*entity.VerificationToken, error) {
	stored, err := s.tokens.Consume(ctx, identifier, token)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if _, err := s.cache.ConsumeVerificationToken(identifier, token); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AdapterService] cache purge failed for verification token %s: %v", identifier, err)
		}
	}
	return stored, nil
}

// RefreshUserCache re-reads the canonical user from the remote store and
// republishes it to the cache. The framework calls it after sign-in.
func (s *AdapterService) RefreshUserCache(ctx context.Context, userID string) error {
	if s.cache == nil || userID == "" {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.cache.SetUser(user)
}

// cacheUser mirrors a remote-store read into the cache. Failures are
// logged and the user is returned regardless: the cache is derived state
// and the next cache-aside miss repopulates it.
func (s *AdapterService) cacheUser(user *entity.User) *entity.User {
	if s.cache == nil || user == nil {
		return user
	}
	if err := s.cache.SetUser(user); err != nil {
		log.Printf("[AdapterService] cache write failed for user %s: %v", user.ID, err)
	}
	return user
}

// cachedUser unwraps a cache lookup with fail-open semantics: a miss is
// nil, an error is logged and treated as a miss.
func (s *AdapterService) cachedUser(user *entity.User, err error) *entity.User {
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AdapterService] cache read failed: %v", err)
		}
		return nil
	}
	return user
}

func mergeSession(session, updates *entity.Session) {
	if !updates.Expires.IsZero() {
		session.Expires = updates.Expires
	}
	if updates.UserID != "" {
		session.UserID = updates.UserID
	}
}
