package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
	"storefront-accounts/pkg/response"
)

// RequireRoles permits the request only when the account's current role is a
// member of the given set. An empty set permits everyone. The role is
// re-read from the store rather than trusted from token claims, so a role
// change takes effect without waiting for outstanding tokens to expire.
// Must run after Auth.
func RequireRoles(repo repository.AccountRepository, roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(roles) == 0 {
			c.Next()
			return
		}

		accountID := c.GetString(CtxAccountIDKey)
		if accountID == "" {
			response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
			c.Abort()
			return
		}

		a, err := repo.GetByID(c.Request.Context(), accountID)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
			c.Abort()
			return
		}

		for _, r := range roles {
			if a.Role == r {
				c.Next()
				return
			}
		}

		response.Error[any](c, http.StatusForbidden, "insufficient role", nil)
		c.Abort()
	}
}
