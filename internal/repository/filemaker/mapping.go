// Package filemaker implements the domain repositories against the
// FileMaker Data API. Each repository maps one fixed layout; timestamps
// cross the store boundary as ISO-8601 strings with "" standing for
// null, and the conversion to time.Time happens here, not in the store.
package filemaker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

// Fixed collection names in the remote store.
const (
	layoutUser              = "nextauth_user"
	layoutAccount           = "nextauth_account"
	layoutSession           = "nextauth_session"
	layoutVerificationToken = "nextauth_verificationToken"
	layoutUserPassword      = "nextauth_user_password"
)

// fmTimestampLayout is the wire form timestamps are written in,
// millisecond precision with a UTC zone designator.
const fmTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func encodeTimestamp(t time.Time) string {
	return t.UTC().Format(fmTimestampLayout)
}

func encodeNullableTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return encodeTimestamp(*t)
}

func decodeTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func decodeNullableTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := decodeTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// stringField reads a field-data value as a string. FileMaker text
// fields always come back as strings, but number fields may arrive as
// JSON numbers, so both are tolerated.
func stringField(fd map[string]interface{}, key string) string {
	switch v := fd[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func int64Field(fd map[string]interface{}, key string) int64 {
	switch v := fd[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func userFieldData(u *entity.User) map[string]interface{} {
	return map[string]interface{}{
		"name":          u.Name,
		"email":         u.Email,
		"image":         u.Image,
		"emailVerified": encodeNullableTimestamp(u.EmailVerified),
	}
}

func userFromRecord(r fmclient.Record) (*entity.User, error) {
	verified, err := decodeNullableTimestamp(stringField(r.FieldData, "emailVerified"))
	if err != nil {
		return nil, fmt.Errorf("user record %s: %w", r.RecordID, err)
	}
	return &entity.User{
		ID:            stringField(r.FieldData, "id"),
		Name:          stringField(r.FieldData, "name"),
		Email:         stringField(r.FieldData, "email"),
		Image:         stringField(r.FieldData, "image"),
		EmailVerified: verified,
	}, nil
}

func accountFieldData(a *entity.Account) map[string]interface{} {
	return map[string]interface{}{
		"userId":            a.UserID,
		"type":              a.Type,
		"provider":          a.Provider,
		"providerAccountId": a.ProviderAccountID,
		"refresh_token":     a.RefreshToken,
		"access_token":      a.AccessToken,
		"expires_at":        a.ExpiresAt,
		"token_type":        a.TokenType,
		"scope":             a.Scope,
		"id_token":          a.IDToken,
		"session_state":     a.SessionState,
	}
}

func accountFromRecord(r fmclient.Record) *entity.Account {
	return &entity.Account{
		ID:                stringField(r.FieldData, "id"),
		UserID:            stringField(r.FieldData, "userId"),
		Type:              stringField(r.FieldData, "type"),
		Provider:          stringField(r.FieldData, "provider"),
		ProviderAccountID: stringField(r.FieldData, "providerAccountId"),
		RefreshToken:      stringField(r.FieldData, "refresh_token"),
		AccessToken:       stringField(r.FieldData, "access_token"),
		ExpiresAt:         int64Field(r.FieldData, "expires_at"),
		TokenType:         stringField(r.FieldData, "token_type"),
		Scope:             stringField(r.FieldData, "scope"),
		IDToken:           stringField(r.FieldData, "id_token"),
		SessionState:      stringField(r.FieldData, "session_state"),
	}
}

func sessionFieldData(s *entity.Session) map[string]interface{} {
	return map[string]interface{}{
		"sessionToken": s.SessionToken,
		"userId":       s.UserID,
		"expires":      encodeTimestamp(s.Expires),
	}
}

func sessionFromRecord(r fmclient.Record) (*entity.Session, error) {
	expires, err := decodeTimestamp(stringField(r.FieldData, "expires"))
	if err != nil {
		return nil, fmt.Errorf("session record %s: %w", r.RecordID, err)
	}
	token := stringField(r.FieldData, "sessionToken")
	return &entity.Session{
		ID:           token,
		SessionToken: token,
		UserID:       stringField(r.FieldData, "userId"),
		Expires:      expires,
	}, nil
}

func verificationTokenFieldData(t *entity.VerificationToken) map[string]interface{} {
	return map[string]interface{}{
		"identifier": t.Identifier,
		"token":      t.Token,
		"expires":    encodeTimestamp(t.Expires),
	}
}

func verificationTokenFromRecord(r fmclient.Record) (*entity.VerificationToken, error) {
	expires, err := decodeTimestamp(stringField(r.FieldData, "expires"))
	if err != nil {
		return nil, fmt.Errorf("verification token record %s: %w", r.RecordID, err)
	}
	return &entity.VerificationToken{
		Identifier: stringField(r.FieldData, "identifier"),
		Token:      stringField(r.FieldData, "token"),
		Expires:    expires,
	}, nil
}
