package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/internal/auth"
	"github.com/jayvaidya30/FraudEx/internal/common"
)

const currentUserKey = "currentUser"

// AuthMiddleware verifies bearer tokens on protected routes and stores
// the resolved user on the gin context.
type AuthMiddleware struct {
	verifier *auth.Verifier
	logger   *slog.Logger
}

func NewAuthMiddleware(verifier *auth.Verifier, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger.With("component", "auth_middleware")}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		user, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			am.logger.Warn("token rejected", "error", err)
			c.AbortWithStatusJSON(common.HTTPStatus(err), gin.H{"error": "invalid token"})
			return
		}

		ctx := common.WithUserID(c.Request.Context(), user.ID)
		ctx = common.WithRequestID(ctx, uuid.NewString())
		c.Request = c.Request.WithContext(ctx)
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser returns the authenticated user previously stored by
// RequireAuth. The bool is false on unauthenticated routes.
func currentUser(c *gin.Context) (auth.CurrentUser, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return auth.CurrentUser{}, false
	}
	user, ok := v.(auth.CurrentUser)
	return user, ok
}
