package routes

import (
	"github.com/GiorgiUbiria/fakebank/internal/auth"
	"github.com/GiorgiUbiria/fakebank/internal/handlers"
	appmw "github.com/GiorgiUbiria/fakebank/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRoutes(h *handlers.Handler, tokens *auth.TokenManager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Home)
	r.Get("/health", h.Health)

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.With(appmw.Authenticated(tokens)).Get("/auth/me", h.Me)

	r.Route("/account", func(r chi.Router) {
		r.Use(appmw.Authenticated(tokens))
		r.Get("/", h.Account)
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
		r.Post("/transfer", h.Transfer)
		r.Get("/transactions", h.Transactions)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(appmw.Authenticated(tokens))
		r.Get("/dashboard", h.Dashboard)
		r.Get("/logs", h.AdminLogs)
		r.Post("/admins", h.CreateAdmin)
		r.Post("/reset", h.Reset)
		r.Get("/transactions", h.AllTransactions)
		r.Get("/transactions/export", h.ExportTransactions)
		r.Get("/accounts", h.Accounts)
		r.Put("/accounts/{id}/balance", h.EditBalance)
		r.Post("/accounts/{id}/suspend", h.Suspend)
		r.Post("/accounts/{id}/close", h.Close)
		r.Delete("/accounts/{id}", h.Delete)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
