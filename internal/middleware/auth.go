package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/model"
)

// Authorizer validates a bearer token against a set of allowed roles.
type Authorizer interface {
	Authorize(token string, roles ...model.Role) (*model.TokenClaims, error)
}

// ClaimsHandler is a gin handler that receives the verified caller.
type ClaimsHandler func(c *gin.Context, claims *model.TokenClaims)

type AuthMiddleware struct {
	authz Authorizer
}

func NewAuthMiddleware(authz Authorizer) *AuthMiddleware {
	return &AuthMiddleware{authz: authz}
}

// Protect verifies the bearer token and role, then calls h with the claims.
// With no roles any authenticated caller passes.
func (m *AuthMiddleware) Protect(h ClaimsHandler, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.authz.Authorize(BearerToken(c.GetHeader("Authorization")), roles...)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		h(c, claims)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Anything else yields "".
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
