package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"storefront-accounts/internal/container"
	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
	handlers "storefront-accounts/internal/interface/http"
	"storefront-accounts/internal/interface/middleware"
	"storefront-accounts/pkg/helpers"
)

// AdminModule wires the admin-only account administration routes.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Repo    repository.AccountRepository
	Tokens  *helpers.TokenManager
}

func NewAdminModule(h *handlers.AdminHandler, repo repository.AccountRepository, tokens *helpers.TokenManager) *AdminModule {
	return &AdminModule{Handler: h, Repo: repo, Tokens: tokens}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	grp := rg.Group("/accounts")
	grp.Use(middleware.Auth(m.Tokens))
	grp.Use(middleware.RequireRoles(m.Repo, entity.RoleAdmin))
	grp.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByAccountID(), nil))
	{
		grp.GET("", m.Handler.List)
		grp.GET("/search", m.Handler.Search)
		grp.DELETE("/:id", m.Handler.Delete)
	}
}
