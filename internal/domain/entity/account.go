package entity

// Account links one external provider identity to one user. The natural
// key is (Provider, ProviderAccountID); at most one live account exists
// per pair. Token fields are opaque pass-through values owned by the
// provider.
type Account struct {
	ID                string `json:"id,omitempty"`
	UserID            string `json:"userId"`
	Type              string `json:"type"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	AccessToken       string `json:"access_token,omitempty"`
	ExpiresAt         int64  `json:"expires_at,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	Scope             string `json:"scope,omitempty"`
	IDToken           string `json:"id_token,omitempty"`
	SessionState      string `json:"session_state,omitempty"`
}
