package filemaker

import (
	"context"
	"fmt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

// UserCredentialRepo reads user records through the password layout,
// which exposes the same user fields plus the bcrypt password hash.
type UserCredentialRepo struct {
	client *fmclient.Client
}

func NewUserCredentialRepo(client *fmclient.Client) *UserCredentialRepo {
	return &UserCredentialRepo{client: client}
}

func (r *UserCredentialRepo) GetByEmail(ctx context.Context, email string) (*entity.User, string, error) {
	set, err := r.client.Find(ctx, layoutUserPassword, []fmclient.Query{{fmclient.Eq("email", email)}}, nil, true)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find credentials by email: %w", err)
	}
	if len(set.Data) == 0 {
		return nil, "", apperrors.ErrNotFound
	}
	user, err := userFromRecord(set.Data[0])
	if err != nil {
		return nil, "", err
	}
	return user, stringField(set.Data[0].FieldData, "passwordHash"), nil
}
