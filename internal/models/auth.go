package models

// APIKeyLoginRequest authenticates with the configured API key.
type APIKeyLoginRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

// CredentialsLoginRequest authenticates with the configured username/password.
type CredentialsLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string     `json:"accessToken"`
	Method      AuthMethod `json:"method"`
	ExpiresIn   int64      `json:"expiresIn"`
}
