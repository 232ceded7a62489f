package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

// ContextTokenKey is the gin context key storing the validated token record.
const ContextTokenKey = "accessToken"

type tokenValidator interface {
	Validate(ctx context.Context, token string) (*models.Token, error)
}

// BearerAuth protects routes by requiring a valid access token. Every
// rejection carries the same message so callers cannot tell unknown tokens
// from expired ones.
func BearerAuth(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		record, err := tokens.Validate(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextTokenKey, record)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
