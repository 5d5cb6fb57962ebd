package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates an optional Bearer JWT and hangs its claims on
// the request context. Token header sessions remain the primary mechanism;
// this exists for API clients that prefer Authorization headers.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		auth = strings.TrimPrefix(auth, "Bearer ")
		validated, err := utils.JwtValidate(auth)
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if claims, ok := validated.Claims.(*utils.JwtCustomClaim); ok {
			ctx := utils.SetUserIdInContext(c.Request.Context(), claims.ID)
			ctx = utils.SetUserNameInContext(ctx, claims.Name)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
