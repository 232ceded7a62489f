package service

import (
	"context"
	"crypto/subtle"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// Auth error messages returned to clients.
const (
	msgAPIKeyRequired      = "apiKey is required"
	msgInvalidAPIKey       = "Invalid API key"
	msgCredentialsRequired = "username and password are required"
	msgInvalidCredentials  = "Invalid credentials"
)

type tokenIssuer interface {
	Issue(ctx context.Context, method models.AuthMethod) (string, error)
}

// AuthConfig holds the static secrets logins are checked against.
type AuthConfig struct {
	APIKey   string
	Username string
	Password string
}

// AuthService provides the two login flows.
type AuthService struct {
	tokens    tokenIssuer
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(tokens tokenIssuer, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{tokens: tokens, validator: validate, logger: logger, config: config}
}

// LoginWithAPIKey exchanges the configured API key for a token.
func (s *AuthService) LoginWithAPIKey(ctx context.Context, req models.APIKeyLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgAPIKeyRequired)
	}
	if !secretEqual(req.APIKey, s.config.APIKey) {
		s.logger.Info("api key login rejected")
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, msgInvalidAPIKey)
	}
	return s.issue(ctx, models.AuthMethodAPIKey)
}

// LoginWithCredentials exchanges the configured username/password for a token.
func (s *AuthService) LoginWithCredentials(ctx context.Context, req models.CredentialsLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgCredentialsRequired)
	}
	userOK := secretEqual(req.Username, s.config.Username)
	passOK := secretEqual(req.Password, s.config.Password)
	if !userOK || !passOK {
		s.logger.Info("credentials login rejected", zap.String("username", req.Username))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, msgInvalidCredentials)
	}
	return s.issue(ctx, models.AuthMethodCredentials)
}

func (s *AuthService) issue(ctx context.Context, method models.AuthMethod) (*models.LoginResponse, error) {
	token, err := s.tokens.Issue(ctx, method)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		AccessToken: token,
		Method:      method,
		ExpiresIn:   int64(models.TokenTTL.Seconds()),
	}, nil
}

// secretEqual compares in constant time. An unset secret never matches.
func secretEqual(given, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
