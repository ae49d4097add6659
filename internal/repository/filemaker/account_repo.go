package filemaker

import (
	"context"
	"fmt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

type AccountRepo struct {
	client *fmclient.Client
}

func NewAccountRepo(client *fmclient.Client) *AccountRepo {
	return &AccountRepo{client: client}
}

func (r *AccountRepo) Create(ctx context.Context, account *entity.Account) error {
	if _, err := r.client.Create(ctx, layoutAccount, accountFieldData(account), nil); err != nil {
		return fmt.Errorf("failed to create account %s/%s: %w", account.Provider, account.ProviderAccountID, err)
	}
	return nil
}

func (r *AccountRepo) GetByProvider(ctx context.Context, provider, providerAccountID string) (*entity.Account, error) {
	record, err := r.findRecord(ctx, provider, providerAccountID)
	if err != nil {
		return nil, err
	}
	return accountFromRecord(*record), nil
}

func (r *AccountRepo) DeleteByProvider(ctx context.Context, provider, providerAccountID string) error {
	record, err := r.findRecord(ctx, provider, providerAccountID)
	if err != nil {
		return err
	}
	if err := r.client.Delete(ctx, layoutAccount, record.RecordID, nil); err != nil {
		return fmt.Errorf("failed to delete account %s/%s: %w", provider, providerAccountID, err)
	}
	return nil
}

func (r *AccountRepo) findRecord(ctx context.Context, provider, providerAccountID string) (*fmclient.Record, error) {
	query := fmclient.Query{
		fmclient.Eq("provider", provider),
		fmclient.Eq("providerAccountId", providerAccountID),
	}
	set, err := r.client.Find(ctx, layoutAccount, []fmclient.Query{query}, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s/%s: %w", provider, providerAccountID, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &set.Data[0], nil
}
