package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
)

const identityKey = "identity"

// SessionResolver turns a bearer token into the caller's identity.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*models.Identity, error)
}

// bearerToken returns the token, "" when the header is absent, or ok=false when malformed.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", true
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		return "", false
	}
	return tokenStr, true
}

func resolve(c *gin.Context, sessions SessionResolver, tokenStr string) bool {
	identity, err := sessions.CurrentSession(c.Request.Context(), tokenStr)
	if err != nil {
		if models.IsTransportError(err) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "session store unavailable"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return false
	}
	c.Set(identityKey, identity)
	return true
}

// RequireAuth rejects requests without a valid bearer session.
func RequireAuth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		tokenStr, ok := bearerToken(c)
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		if !resolve(c, sessions, tokenStr) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through without an identity. A token
// that is present but invalid is still rejected.
func OptionalAuth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		if tokenStr != "" && !resolve(c, sessions, tokenStr) {
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireAuth/OptionalAuth, or nil.
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}
