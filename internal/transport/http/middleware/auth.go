package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/internal/transport/http/ez"
)

const (
	KeyUser  = "user"
	KeyToken = "token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*domain.User, error)
}

// Auth requires "Authorization: Bearer <credential>" and stores the resolved
// user and credential on the context.
func Auth(a Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			ez.Fail(c, log, domain.Unauthenticated("Please authenticate."))
			return
		}
		u, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			ez.Fail(c, log, err)
			return
		}
		c.Set(KeyUser, u)
		c.Set(KeyToken, token)
		c.Next()
	}
}

// CurrentUser returns the user set by Auth, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	u, _ := c.Get(KeyUser)
	v, _ := u.(*domain.User)
	return v
}
