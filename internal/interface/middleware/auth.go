package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-accounts/pkg/helpers"
	"storefront-accounts/pkg/response"
)

const (
	CtxAccountIDKey = "accountID"
	CtxEmailKey     = "accountEmail"
)

// Auth verifies the access token and injects the account identity into the
// Gin context. The token is read from the Authorization header (Bearer
// scheme) with an access_token cookie fallback.
func Auth(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessTokenFrom(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired access token", nil)
			c.Abort()
			return
		}
		c.Set(CtxAccountIDKey, claims.Subject)
		c.Set(CtxEmailKey, claims.Email)
		c.Next()
	}
}

func accessTokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if tok, err := c.Cookie("access_token"); err == nil {
		return tok
	}
	return ""
}
