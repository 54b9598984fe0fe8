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

// AccountModule wires the account lifecycle routes: registration (admin
// only), activation, login, refresh, resend-activation and password reset.
type AccountModule struct {
	Handler *handlers.AccountHandler
	Repo    repository.AccountRepository
	Tokens  *helpers.TokenManager
}

func NewAccountModule(h *handlers.AccountHandler, repo repository.AccountRepository, tokens *helpers.TokenManager) *AccountModule {
	return &AccountModule{Handler: h, Repo: repo, Tokens: tokens}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	allowInternal := middleware.AllowPrivateIP()

	// Public endpoints with IP-based rate limits. Credential endpoints get
	// the tightest windows.
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), allowInternal)
	tokenLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), allowInternal)
	mailLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), allowInternal)

	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/activate", tokenLimiter, m.Handler.Activate)
	rg.POST("/auth/refresh-token", tokenLimiter, m.Handler.Refresh)
	rg.POST("/auth/resend-activation", mailLimiter, m.Handler.ResendActivation)
	rg.POST("/auth/forgot-password", mailLimiter, m.Handler.ForgotPassword)
	rg.POST("/auth/reset-password", tokenLimiter, m.Handler.ResetPassword)

	// Authenticated endpoints. Registration creates accounts on behalf of
	// customers, so it sits behind the admin role.
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Tokens))
	{
		auth.GET("/auth/me", m.Handler.Me)
		auth.POST("/auth/register",
			middleware.RequireRoles(m.Repo, entity.RoleAdmin),
			m.Handler.Register,
		)
	}
}
