package router

import (
	"storefront-accounts/internal/application"
	"storefront-accounts/internal/container"
	pginfra "storefront-accounts/internal/infrastructure/postgres"
	handlers "storefront-accounts/internal/interface/http"
	"storefront-accounts/internal/router/modules"
)

// InitModules builds the account stack from the container singletons and
// registers all feature modules. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	repo := pginfra.NewAccountRepository(container.GetPGPool())

	svc := application.NewService(
		repo,
		container.GetTokens(),
		container.GetMailQueue(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESAccountsIndex,
		cfg.FrontendURL,
	)

	accountHandler := handlers.NewAccountHandler(svc, container.GetLogger())
	adminHandler := handlers.NewAdminHandler(svc, container.GetLogger())

	r.Add(modules.NewAccountModule(accountHandler, repo, container.GetTokens()))
	r.Add(modules.NewAdminModule(adminHandler, repo, container.GetTokens()))
}
