package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/redis"
	"github.com/realsbd/bicxchange/internal/service"
)

const (
	ContextUserIDKey = "user_id"
	ContextScopeKey  = "scope"
)

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msg})
}

// Authorize accepts a bearer access token and requires every role in required.
// With a session store, the token must also be the user's current session.
func Authorize(tokens *pkg.TokenManager, sessions service.SessionStore, required ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		scheme, tokenStr, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
			unauthorized(c, "invalid authorization format")
			return
		}

		claims, err := tokens.ParseAccess(tokenStr)
		if errors.Is(err, pkg.ErrTokenExpired) {
			unauthorized(c, "Token expired")
			return
		}
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}

		if sessions != nil {
			current, err := sessions.Get(c.Request.Context(), claims.Subject)
			switch {
			case errors.Is(err, redis.ErrTokenNotFound), err == nil && current != tokenStr:
				unauthorized(c, "Account has been logged in elsewhere")
				return
			case err != nil:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "session store unavailable"})
				return
			}
		}

		scope := model.RolesFromStrings(claims.Scope)
		if !scope.Has(required...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "Not enough permissions"})
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextScopeKey, scope)
		c.Next()
	}
}

// CallerFrom returns the principal stored by Authorize.
func CallerFrom(c *gin.Context) service.Caller {
	caller := service.Caller{ID: c.GetString(ContextUserIDKey)}
	if v, ok := c.Get(ContextScopeKey); ok {
		caller.Scope, _ = v.(model.Roles)
	}
	return caller
}
