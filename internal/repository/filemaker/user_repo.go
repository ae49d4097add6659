package filemaker

import (
	"context"
	"fmt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

type UserRepo struct {
	client *fmclient.Client
}

func NewUserRepo(client *fmclient.Client) *UserRepo {
	return &UserRepo{client: client}
}

// Create inserts the user and re-reads the record, since the logical id
// is assigned by the store on insert.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	recordID, err := r.client.Create(ctx, layoutUser, userFieldData(user), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.getByRecordID(ctx, recordID)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, fmclient.Eq("id", id))
}

// GetByEmail returns the first match. The store does not declare email
// unique, so duplicates are tolerated by picking the first record.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, fmclient.Eq("email", email))
}

// Update patches every field except the id, which cannot be modified in
// the store, and returns the record re-read after the patch.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	recordID, err := r.recordIDByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := r.client.Update(ctx, layoutUser, recordID, userFieldData(user), nil); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return r.getByRecordID(ctx, recordID)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	recordID, err := r.recordIDByUserID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.client.Delete(ctx, layoutUser, recordID, nil); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}

func (r *UserRepo) getByRecordID(ctx context.Context, recordID string) (*entity.User, error) {
	set, err := r.client.Get(ctx, layoutUser, recordID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read user record %s: %w", recordID, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return userFromRecord(set.Data[0])
}

// recordIDByUserID resolves the logical id to the store's physical
// record identity. It is never cached: it is only used immediately
// before a mutation.
func (r *UserRepo) recordIDByUserID(ctx context.Context, id string) (string, error) {
	set, err := r.client.Find(ctx, layoutUser, []fmclient.Query{{fmclient.Eq("id", id)}}, nil, true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user %s: %w", id, err)
	}
	if len(set.Data) == 0 {
		return "", apperrors.ErrNotFound
	}
	return set.Data[0].RecordID, nil
}

func (r *UserRepo) findOne(ctx context.Context, predicate fmclient.Predicate) (*entity.User, error) {
	set, err := r.client.Find(ctx, layoutUser, []fmclient.Query{{predicate}}, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", predicate.Field, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return userFromRecord(set.Data[0])
}
