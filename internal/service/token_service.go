package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

var tokenPrefixes = map[models.AuthMethod]string{
	models.AuthMethodAPIKey:      "BEARER-APIKEY-",
	models.AuthMethodCredentials: "BEARER-USER-",
}

// TokenService issues and validates opaque bearer tokens.
type TokenService struct {
	tokens  repository.TokenStore
	logger  *zap.Logger
	metrics *MetricsService
	now     func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(tokens repository.TokenStore, logger *zap.Logger, metrics *MetricsService) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{tokens: tokens, logger: logger, metrics: metrics, now: time.Now}
}

// Issue persists a new token for method and returns it.
func (s *TokenService) Issue(ctx context.Context, method models.AuthMethod) (string, error) {
	prefix, ok := tokenPrefixes[method]
	if !ok {
		return "", appErrors.Internal(nil, "unknown auth method "+string(method))
	}
	token := prefix + strings.ToUpper(uuid.NewString())
	record := models.Token{Method: method, CreatedAt: s.now().UnixMilli()}
	if err := s.tokens.Put(ctx, token, record); err != nil {
		return "", appErrors.Internal(err, "failed to store access token")
	}
	s.metrics.RecordToken("issued", string(method))
	return token, nil
}

// Validate returns the record behind token. Unknown and expired tokens are
// indistinguishable to the caller; expired ones are deleted.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.Token, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.tokens.Get(ctx, token)
	if err != nil {
		if isNotFound(err) {
			s.metrics.RecordToken("rejected", "")
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Internal(err, "failed to load access token")
	}
	if record.ExpiredAt(s.now()) {
		if err := s.tokens.Delete(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired token", zap.Error(err))
		}
		s.metrics.RecordToken("expired", string(record.Method))
		s.logger.Debug("access token expired", zap.String("method", string(record.Method)))
		return nil, appErrors.ErrUnauthorized
	}
	return record, nil
}
