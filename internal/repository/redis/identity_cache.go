package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	"github.com/yourusername/fmauth-adapter/internal/domain/repository"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
)

// KeyPrefixes configures the key scheme of the identity cache. Base is
// prepended to every other prefix. Empty fields take the defaults.
type KeyPrefixes struct {
	Base              string
	User              string
	Email             string
	Session           string
	SessionByUserID   string
	Account           string
	AccountByUserID   string
	VerificationToken string
}

// DefaultKeyPrefixes returns the fixed default key scheme.
func DefaultKeyPrefixes() KeyPrefixes {
	return KeyPrefixes{
		Base:              "",
		User:              "user:",
		Email:             "user:email:",
		Session:           "user:session:",
		SessionByUserID:   "user:session:by-user-id:",
		Account:           "user:account:",
		AccountByUserID:   "user:account:by-user-id:",
		VerificationToken: "user:token:",
	}
}

func (p KeyPrefixes) merged() KeyPrefixes {
	def := DefaultKeyPrefixes()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	base := p.Base
	return KeyPrefixes{
		Base:              base,
		User:              base + pick(p.User, def.User),
		Email:             base + pick(p.Email, def.Email),
		Session:           base + pick(p.Session, def.Session),
		SessionByUserID:   base + pick(p.SessionByUserID, def.SessionByUserID),
		Account:           base + pick(p.Account, def.Account),
		AccountByUserID:   base + pick(p.AccountByUserID, def.AccountByUserID),
		VerificationToken: base + pick(p.VerificationToken, def.VerificationToken),
	}
}

// IdentityCache implements repository.IdentityCache over the generic
// cache repository. Entries are stored as JSON without a TTL; secondary
// indices (email pointer, by-user-id pointers) are maintained as
// separate writes after the primary entry.
type IdentityCache struct {
	cache    repository.CacheRepository
	prefixes KeyPrefixes
}

func NewIdentityCache(cache repository.CacheRepository, prefixes KeyPrefixes) (*IdentityCache, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache repository cannot be nil for IdentityCache")
	}
	return &IdentityCache{
		cache:    cache,
		prefixes: prefixes.merged(),
	}, nil
}

func (c *IdentityCache) setObjectAsJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.cache.Set(key, data, 0)
}

func (c *IdentityCache) SetUser(user *entity.User) error {
	if err := c.setObjectAsJSON(c.prefixes.User+user.ID, user); err != nil {
		return err
	}
	return c.cache.Set(c.prefixes.Email+user.Email, user.ID, 0)
}

func (c *IdentityCache) GetUser(id string) (*entity.User, error) {
	raw, err := c.cache.Get(c.prefixes.User + id)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *IdentityCache) GetUserByEmail(email string) (*entity.User, error) {
	id, err := c.cache.Get(c.prefixes.Email + email)
	if err != nil {
		return nil, err
	}
	return c.GetUser(id)
}

// DeleteUser removes the user entry and everything hanging off it: the
// email pointer, the user's session (found through the by-user-id
// pointer) and the user's account pointer.
func (c *IdentityCache) DeleteUser(user *entity.User) error {
	keys := []string{
		c.prefixes.User + user.ID,
		c.prefixes.Email + user.Email,
		c.prefixes.SessionByUserID + user.ID,
		c.prefixes.AccountByUserID + user.ID,
	}
	if sessionKey, err := c.cache.Get(c.prefixes.SessionByUserID + user.ID); err == nil && sessionKey != "" {
		keys = append(keys, sessionKey)
	}
	if accountKey, err := c.cache.Get(c.prefixes.AccountByUserID + user.ID); err == nil && accountKey != "" {
		keys = append(keys, accountKey)
	}
	return c.cache.Delete(keys...)
}

func (c *IdentityCache) SetAccount(account *entity.Account) error {
	accountKey := c.prefixes.Account + account.Provider + ":" + account.ProviderAccountID
	if err := c.setObjectAsJSON(accountKey, account); err != nil {
		return err
	}
	return c.cache.Set(c.prefixes.AccountByUserID+account.UserID, accountKey, 0)
}

func (c *IdentityCache) GetAccount(provider, providerAccountID string) (*entity.Account, error) {
	raw, err := c.cache.Get(c.prefixes.Account + provider + ":" + providerAccountID)
	if err != nil {
		return nil, err
	}
	return decodeAccount(raw)
}

func (c *IdentityCache) DeleteAccount(provider, providerAccountID, userID string) error {
	return c.cache.Delete(
		c.prefixes.Account+provider+":"+providerAccountID,
		c.prefixes.AccountByUserID+userID,
	)
}

func (c *IdentityCache) SetSession(session *entity.Session) error {
	sessionKey := c.prefixes.Session + session.SessionToken
	if err := c.setObjectAsJSON(sessionKey, session); err != nil {
		return err
	}
	return c.cache.Set(c.prefixes.SessionByUserID+session.UserID, sessionKey, 0)
}

func (c *IdentityCache) GetSession(sessionToken string) (*entity.Session, error) {
	raw, err := c.cache.Get(c.prefixes.Session + sessionToken)
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

func (c *IdentityCache) DeleteSession(sessionToken string) error {
	return c.cache.Delete(c.prefixes.Session + sessionToken)
}

func (c *IdentityCache) SetVerificationToken(token *entity.VerificationToken) error {
	return c.setObjectAsJSON(c.prefixes.VerificationToken+token.Identifier, token)
}

// ConsumeVerificationToken reads and deletes the stored token for the
// identifier. The stored token value must match the requested one; a
// mismatch behaves like an absent entry.
func (c *IdentityCache) ConsumeVerificationToken(identifier, token string) (*entity.VerificationToken, error) {
	key := c.prefixes.VerificationToken + identifier
	raw, err := c.cache.Get(key)
	if err != nil {
		return nil, err
	}
	stored, err := decodeVerificationToken(raw)
	if err != nil {
		return nil, err
	}
	if stored.Token != token {
		return nil, apperrors.ErrNotFound
	}
	if err := c.cache.Delete(key); err != nil {
		return nil, err
	}
	return stored, nil
}

// Decoding goes through the generic date-revival pass so that every
// ISO-8601-shaped string is treated uniformly, exactly as stored
// payloads written by other processes would be.

func decodeUser(raw string) (*entity.User, error) {
	m, err := revivedMap(raw)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:    mapString(m, "id"),
		Name:  mapString(m, "name"),
		Email: mapString(m, "email"),
		Image: mapString(m, "image"),
	}
	if t, ok := m["emailVerified"].(time.Time); ok {
		user.EmailVerified = &t
	}
	return user, nil
}

func decodeAccount(raw string) (*entity.Account, error) {
	m, err := revivedMap(raw)
	if err != nil {
		return nil, err
	}
	account := &entity.Account{
		ID:                mapString(m, "id"),
		UserID:            mapString(m, "userId"),
		Type:              mapString(m, "type"),
		Provider:          mapString(m, "provider"),
		ProviderAccountID: mapString(m, "providerAccountId"),
		RefreshToken:      mapString(m, "refresh_token"),
		AccessToken:       mapString(m, "access_token"),
		TokenType:         mapString(m, "token_type"),
		Scope:             mapString(m, "scope"),
		IDToken:           mapString(m, "id_token"),
		SessionState:      mapString(m, "session_state"),
	}
	if n, ok := m["expires_at"].(float64); ok {
		account.ExpiresAt = int64(n)
	}
	return account, nil
}

func decodeSession(raw string) (*entity.Session, error) {
	m, err := revivedMap(raw)
	if err != nil {
		return nil, err
	}
	session := &entity.Session{
		ID:           mapString(m, "id"),
		SessionToken: mapString(m, "sessionToken"),
		UserID:       mapString(m, "userId"),
	}
	if t, ok := m["expires"].(time.Time); ok {
		session.Expires = t
	}
	return session, nil
}

func decodeVerificationToken(raw string) (*entity.VerificationToken, error) {
	m, err := revivedMap(raw)
	if err != nil {
		return nil, err
	}
	token := &entity.VerificationToken{
		Identifier: mapString(m, "identifier"),
		Token:      mapString(m, "token"),
	}
	if t, ok := m["expires"].(time.Time); ok {
		token.Expires = t
	}
	return token, nil
}

func revivedMap(raw string) (map[string]interface{}, error) {
	v, err := decodeRevived([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("cache entry is not an object")
	}
	return m, nil
}

func mapString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
