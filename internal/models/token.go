package models

import "time"

// TokenTTL is the fixed lifetime of an access token.
const TokenTTL = time.Hour

// AuthMethod records how a token was obtained.
type AuthMethod string

// Supported login methods.
const (
	AuthMethodAPIKey      AuthMethod = "API_KEY"
	AuthMethodCredentials AuthMethod = "CREDENTIALS"
)

// Token is the persisted record behind an opaque bearer token. It carries no
// identity; holding the token is the capability.
type Token struct {
	Method    AuthMethod `json:"method"`
	CreatedAt int64      `json:"createdAt"`
}

// IssuedAt converts the epoch-millisecond timestamp.
func (t Token) IssuedAt() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// ExpiredAt reports whether more than TokenTTL has elapsed at now.
func (t Token) ExpiredAt(now time.Time) bool {
	return now.UnixMilli()-t.CreatedAt > TokenTTL.Milliseconds()
}
