package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/service"
)

const (
	currentUserKey = "current_user"
	principalKey   = "principal"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string, client service.ClientInfo) (service.Principal, error)
}

// Auth requires a bearer access token bound to a live session.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		principal, err := auth.Authenticate(c.Request.Context(), tokenStr, service.ClientInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		switch {
		case err == nil:
		case errors.Is(err, service.ErrInactiveUser):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		case errors.Is(err, service.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		c.Set(principalKey, principal)
		c.Set(currentUserKey, principal.User)

		c.Next()
	}
}

// CurrentPrincipal returns the caller resolved by Auth.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}, false
	}
	principal, ok := val.(service.Principal)
	return principal, ok
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
