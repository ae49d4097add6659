package repository

import (
	"context"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
)

// AccountRepository stores provider account links in the system of
// record, keyed by the (provider, providerAccountId) pair.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*entity.Account, error)
	DeleteByProvider(ctx context.Context, provider, providerAccountID string) error
}
