package filemaker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

// fakeDataAPI is an in-memory Data API server covering the subset the
// repositories use: create, get, patch, delete and equality-only _find.
// On insert it auto-enters a generated "id" field value, like the
// store's auto-enter calculation does.
type fakeDataAPI struct {
	mu      sync.Mutex
	nextID  int
	layouts map[string]map[string]map[string]interface{}
}

func newFakeDataAPI() *fakeDataAPI {
	return &fakeDataAPI{layouts: make(map[string]map[string]map[string]interface{})}
}

func (f *fakeDataAPI) layout(name string) map[string]map[string]interface{} {
	if f.layouts[name] == nil {
		f.layouts[name] = make(map[string]map[string]interface{})
	}
	return f.layouts[name]
}

func (f *fakeDataAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/fmi/data/vLatest/databases/testdb/layouts/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case len(parts) == 2 && parts[1] == "records" && r.Method == http.MethodPost:
			f.create(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "_find" && r.Method == http.MethodPost:
			f.find(w, r, parts[0])
		case len(parts) == 3 && parts[1] == "records" && r.Method == http.MethodGet:
			f.get(w, parts[0], parts[2])
		case len(parts) == 3 && parts[1] == "records" && r.Method == http.MethodPatch:
			f.patch(w, r, parts[0], parts[2])
		case len(parts) == 3 && parts[1] == "records" && r.Method == http.MethodDelete:
			f.delete(w, parts[0], parts[2])
		default:
			http.NotFound(w, r)
		}
	})
}

func (f *fakeDataAPI) create(w http.ResponseWriter, r *http.Request, layout string) {
	var body struct {
		FieldData map[string]interface{} `json:"fieldData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, "500", err.Error())
		return
	}
	f.nextID++
	recordID := strconv.Itoa(f.nextID)
	if id, _ := body.FieldData["id"].(string); id == "" {
		body.FieldData["id"] = "gen-" + recordID
	}
	f.layout(layout)[recordID] = body.FieldData
	writeFakeResponse(w, map[string]interface{}{"recordId": recordID, "modId": "0"})
}

func (f *fakeDataAPI) get(w http.ResponseWriter, layout, recordID string) {
	fd, ok := f.layout(layout)[recordID]
	if !ok {
		writeFakeError(w, http.StatusNotFound, "101", "Record is missing")
		return
	}
	writeFakeResponse(w, recordSetJSON(recordID, fd))
}

func (f *fakeDataAPI) patch(w http.ResponseWriter, r *http.Request, layout, recordID string) {
	fd, ok := f.layout(layout)[recordID]
	if !ok {
		writeFakeError(w, http.StatusNotFound, "101", "Record is missing")
		return
	}
	var body struct {
		FieldData map[string]interface{} `json:"fieldData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, "500", err.Error())
		return
	}
	for k, v := range body.FieldData {
		fd[k] = v
	}
	writeFakeResponse(w, map[string]interface{}{"modId": "1"})
}

func (f *fakeDataAPI) delete(w http.ResponseWriter, layout, recordID string) {
	if _, ok := f.layout(layout)[recordID]; !ok {
		writeFakeError(w, http.StatusNotFound, "101", "Record is missing")
		return
	}
	delete(f.layout(layout), recordID)
	writeFakeResponse(w, map[string]interface{}{})
}

func (f *fakeDataAPI) find(w http.ResponseWriter, r *http.Request, layout string) {
	var body struct {
		Query []map[string]string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, "500", err.Error())
		return
	}
	var data []map[string]interface{}
	for recordID, fd := range f.layout(layout) {
		for _, q := range body.Query {
			if matchesEquality(fd, q) {
				data = append(data, map[string]interface{}{
					"fieldData": fd, "recordId": recordID, "modId": "0",
				})
				break
			}
		}
	}
	if len(data) == 0 {
		writeFakeError(w, http.StatusInternalServerError, "401", "No records match the request")
		return
	}
	writeFakeResponse(w, map[string]interface{}{"data": data})
}

func matchesEquality(fd map[string]interface{}, query map[string]string) bool {
	for field, want := range query {
		want = strings.TrimPrefix(want, "==")
		if fmt.Sprintf("%v", fd[field]) != want {
			return false
		}
	}
	return true
}

func recordSetJSON(recordID string, fd map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": []map[string]interface{}{
			{"fieldData": fd, "recordId": recordID, "modId": "0"},
		},
	}
}

func writeFakeResponse(w http.ResponseWriter, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"response": response,
		"messages": []map[string]string{{"code": "0", "message": "OK"}},
	})
}

func writeFakeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": []map[string]string{{"code": code, "message": message}},
	})
}

func newFakeStoreClient(t *testing.T) (*fmclient.Client, *fakeDataAPI) {
	t.Helper()
	api := newFakeDataAPI()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	auth, err := fmclient.NewStaticTokenProvider("test-key")
	require.NoError(t, err)
	client, err := fmclient.New(fmclient.Config{
		Server:   u.Scheme + "://" + u.Hostname(),
		Database: "testdb",
		Port:     port,
	}, auth)
	require.NoError(t, err)
	return client, api
}

func TestUserRepoCreateReturnsStoreAssignedID(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewUserRepo(client)
	verified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	created, err := repo.Create(context.Background(), &entity.User{
		Name:          "Alice",
		Email:         "alice@example.com",
		EmailVerified: &verified,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "store must assign the logical id")
	assert.Equal(t, "alice@example.com", created.Email)
	require.NotNil(t, created.EmailVerified)
	assert.True(t, verified.Equal(*created.EmailVerified))
}

func TestUserRepoGetByIDAndEmail(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewUserRepo(client)
	created, err := repo.Create(context.Background(), &entity.User{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.NoError(t, err)

	byID, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUserRepoGetByIDNotFound(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewUserRepo(client)

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepoUpdateDoesNotTouchID(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewUserRepo(client)
	created, err := repo.Create(context.Background(), &entity.User{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.NoError(t, err)

	created.Name = "Alice Cooper"
	updated, err := repo.Update(context.Background(), created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Alice Cooper", updated.Name)
}

func TestUserRepoDelete(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewUserRepo(client)
	created, err := repo.Create(context.Background(), &entity.User{Email: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), created.ID))

	_, err = repo.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVerificationTokenRepoConsumeIsSingleUse(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewVerificationTokenRepo(client)
	token := &entity.VerificationToken{
		Identifier: "alice@example.com",
		Token:      "tok-secret",
		Expires:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), token))

	consumed, err := repo.Consume(context.Background(), "alice@example.com", "tok-secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", consumed.Token)
	assert.True(t, token.Expires.Equal(consumed.Expires))

	_, err = repo.Consume(context.Background(), "alice@example.com", "tok-secret")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVerificationTokenRepoWrongTokenValue(t *testing.T) {
	client, _ := newFakeStoreClient(t)
	repo := NewVerificationTokenRepo(client)
	require.NoError(t, repo.Create(context.Background(), &entity.VerificationToken{
		Identifier: "alice@example.com",
		Token:      "tok-secret",
		Expires:    time.Now().Add(time.Hour),
	}))

	_, err := repo.Consume(context.Background(), "alice@example.com", "tok-wrong")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
