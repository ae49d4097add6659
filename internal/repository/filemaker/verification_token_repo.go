package filemaker

import (
	"context"
	"fmt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

type VerificationTokenRepo struct {
	client *fmclient.Client
}

func NewVerificationTokenRepo(client *fmclient.Client) *VerificationTokenRepo {
	return &VerificationTokenRepo{client: client}
}

func (r *VerificationTokenRepo) Create(ctx context.Context, token *entity.VerificationToken) error {
	if _, err := r.client.Create(ctx, layoutVerificationToken, verificationTokenFieldData(token), nil); err != nil {
		return fmt.Errorf("failed to create verification token for %s: %w", token.Identifier, err)
	}
	return nil
}

// Consume finds the (identifier, token) pair and deletes it, returning
// the stored token. Once consumed, a repeat call observes ErrNotFound.
func (r *VerificationTokenRepo) Consume(ctx context.Context, identifier, token string) (*entity.VerificationToken, error) {
	query := fmclient.Query{
		fmclient.Eq("identifier", identifier),
		fmclient.Eq("token", token),
	}
	set, err := r.client.Find(ctx, layoutVerificationToken, []fmclient.Query{query}, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find verification token for %s: %w", identifier, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	record := set.Data[0]
	if err := r.client.Delete(ctx, layoutVerificationToken, record.RecordID, nil); err != nil {
		return nil, fmt.Errorf("failed to consume verification token for %s: %w", identifier, err)
	}
	return verificationTokenFromRecord(record)
}
