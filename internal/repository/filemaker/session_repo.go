package filemaker

import (
	"context"
	"fmt"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	apperrors "github.com/yourusername/fmauth-adapter/internal/pkg/errors"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

type SessionRepo struct {
	client *fmclient.Client
}

func NewSessionRepo(client *fmclient.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session *entity.Session) (*entity.Session, error) {
	recordID, err := r.client.Create(ctx, layoutSession, sessionFieldData(session), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	set, err := r.client.Get(ctx, layoutSession, recordID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record %s: %w", recordID, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return sessionFromRecord(set.Data[0])
}

func (r *SessionRepo) GetByToken(ctx context.Context, sessionToken string) (*entity.Session, error) {
	record, err := r.findRecord(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	return sessionFromRecord(*record)
}

func (r *SessionRepo) Update(ctx context.Context, session *entity.Session) (*entity.Session, error) {
	record, err := r.findRecord(ctx, session.SessionToken)
	if err != nil {
		return nil, err
	}
	if err := r.client.Update(ctx, layoutSession, record.RecordID, sessionFieldData(session), nil); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	set, err := r.client.Get(ctx, layoutSession, record.RecordID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record %s: %w", record.RecordID, err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return sessionFromRecord(set.Data[0])
}

func (r *SessionRepo) Delete(ctx context.Context, sessionToken string) error {
	record, err := r.findRecord(ctx, sessionToken)
	if err != nil {
		return err
	}
	if err := r.client.Delete(ctx, layoutSession, record.RecordID, nil); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepo) findRecord(ctx context.Context, sessionToken string) (*fmclient.Record, error) {
	set, err := r.client.Find(ctx, layoutSession, []fmclient.Query{{fmclient.Eq("sessionToken", sessionToken)}}, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if len(set.Data) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &set.Data[0], nil
}
