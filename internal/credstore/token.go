package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Token is a structured credential bundle persisted per platform as a
// small JSON file. A Token without a refresh value cannot self-heal on
// expiry and requires a full re-authorization.
type Token struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresAt    int64    `json:"expires_at,omitempty"` // unix seconds, 0 = unknown
	Scope        []string `json:"scope,omitempty"`
}

// Valid reports whether the access token is usable, requiring at least
// leeway of remaining lifetime. Tokens without an expiry are assumed
// usable until the provider rejects them.
func (t *Token) Valid(leeway time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt == 0 {
		return true
	}
	return time.Unix(t.ExpiresAt, 0).After(time.Now().Add(leeway))
}

// CanRefresh reports whether the token carries a refresh value.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}

// LoadToken reads a token file. A missing file returns (nil, nil): the
// caller treats that as the NO_TOKEN state, not an error.
func LoadToken(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file %s: %w", path, err)
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken persists a token, superseding any previous contents.
func SaveToken(path string, tok *Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", path, err)
	}
	return nil
}
