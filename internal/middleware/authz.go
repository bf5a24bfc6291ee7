package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
)

func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	allowedSet := map[models.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no identity in context"})
			return
		}
		if _, ok := allowedSet[identity.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
