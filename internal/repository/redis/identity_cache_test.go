package redis

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
)

// memoryCache is an in-memory CacheRepository for tests. Values are
// stored stringified the same way the Redis client stringifies them.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Set(key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (m *memoryCache) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (m *memoryCache) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func newTestCache(t *testing.T) (*IdentityCache, *memoryCache) {
	t.Helper()
	store := newMemoryCache()
	cache, err := NewIdentityCache(store, KeyPrefixes{})
	require.NoError(t, err)
	return cache, store
}

func testUser() *entity.User {
	verified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &entity.User{
		ID:            "usr-1",
		Name:          "Alice",
		Email:         "alice@example.com",
		Image:         "https://example.com/a.png",
		EmailVerified: &verified,
	}
}

func TestIdentityCacheRequiresBackingStore(t *testing.T) {
	_, err := NewIdentityCache(nil, KeyPrefixes{})
	assert.Error(t, err)
}

func TestSetUserWritesEmailIndex(t *testing.T) {
	cache, store := newTestCache(t)
	user := testUser()

	require.NoError(t, cache.SetUser(user))

	assert.True(t, store.has("user:usr-1"))
	id, err := store.Get("user:email:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", id)
}

func TestGetUserRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	user := testUser()
	require.NoError(t, cache.SetUser(user))

	got, err := cache.GetUser("usr-1")

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
	require.NotNil(t, got.EmailVerified)
	assert.True(t, user.EmailVerified.Equal(*got.EmailVerified))
}

func TestGetUserByEmailFollowsIndex(t *testing.T) {
	cache, _ := newTestCache(t)
	require.NoError(t, cache.SetUser(testUser()))

	got, err := cache.GetUserByEmail("alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.ID)
}

func TestGetUserMissing(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.GetUser("nope")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCustomKeyPrefixes(t *testing.T) {
	store := newMemoryCache()
	cache, err := NewIdentityCache(store, KeyPrefixes{Base: "auth:"})
	require.NoError(t, err)

	require.NoError(t, cache.SetUser(testUser()))

	assert.True(t, store.has("auth:user:usr-1"))
	assert.True(t, store.has("auth:user:email:alice@example.com"))
}

func TestSessionByUserIDPointer(t *testing.T) {
	cache, store := newTestCache(t)
	session := &entity.Session{
		ID:           "tok-1",
		SessionToken: "tok-1",
		UserID:       "usr-1",
		Expires:      time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	require.NoError(t, cache.SetSession(session))

	pointer, err := store.Get("user:session:by-user-id:usr-1")
	require.NoError(t, err)
	assert.Equal(t, "user:session:tok-1", pointer)

	got, err := cache.GetSession("tok-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.UserID)
	assert.True(t, session.Expires.Equal(got.Expires))
}

func TestAccountKeyAndPointer(t *testing.T) {
	cache, store := newTestCache(t)
	account := &entity.Account{
		ID:                "acc-1",
		UserID:            "usr-1",
		Provider:          "github",
		ProviderAccountID: "12345",
		ExpiresAt:         1717000000,
	}

	require.NoError(t, cache.SetAccount(account))

	got, err := cache.GetAccount("github", "12345")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.UserID)
	assert.Equal(t, int64(1717000000), got.ExpiresAt)

	pointer, err := store.Get("user:account:by-user-id:usr-1")
	require.NoError(t, err)
	assert.Equal(t, "user:account:github:12345", pointer)

	require.NoError(t, cache.DeleteAccount("github", "12345", "usr-1"))
	assert.False(t, store.has("user:account:github:12345"))
	assert.False(t, store.has("user:account:by-user-id:usr-1"))
}

func TestDeleteUserPurgesLinkedEntries(t *testing.T) {
	cache, store := newTestCache(t)
	user := testUser()
	require.NoError(t, cache.SetUser(user))
	require.NoError(t, cache.SetSession(&entity.Session{
		SessionToken: "tok-1", UserID: user.ID,
		Expires: time.Now().Add(time.Hour),
	}))
	require.NoError(t, cache.SetAccount(&entity.Account{
		UserID: user.ID, Provider: "github", ProviderAccountID: "12345",
	}))

	require.NoError(t, cache.DeleteUser(user))

	for _, key := range []string{
		"user:usr-1",
		"user:email:alice@example.com",
		"user:session:by-user-id:usr-1",
		"user:session:tok-1",
		"user:account:by-user-id:usr-1",
		"user:account:github:12345",
	} {
		assert.False(t, store.has(key), "expected %s to be deleted", key)
	}
}

func TestConsumeVerificationTokenIsSingleUse(t *testing.T) {
	cache, _ := newTestCache(t)
	token := &entity.VerificationToken{
		Identifier: "alice@example.com",
		Token:      "tok-secret",
		Expires:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.SetVerificationToken(token))

	got, err := cache.ConsumeVerificationToken("alice@example.com", "tok-secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", got.Token)
	assert.True(t, token.Expires.Equal(got.Expires))

	_, err = cache.ConsumeVerificationToken("alice@example.com", "tok-secret")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConsumeVerificationTokenWrongToken(t *testing.T) {
	cache, store := newTestCache(t)
	require.NoError(t, cache.SetVerificationToken(&entity.VerificationToken{
		Identifier: "alice@example.com",
		Token:      "tok-secret",
		Expires:    time.Now().Add(time.Hour),
	}))

	_, err := cache.ConsumeVerificationToken("alice@example.com", "tok-wrong")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	// A mismatched token must not consume the stored entry.
	assert.True(t, store.has("user:token:alice@example.com"))
}
