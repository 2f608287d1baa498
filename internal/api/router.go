package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/val/markdown-notes/internal/api/handlers"
	"github.com/val/markdown-notes/internal/api/middleware"
	"github.com/val/markdown-notes/internal/config"
	"github.com/val/markdown-notes/internal/service"
)

func NewRouter(services *service.Services, cfg *config.Config, policies middleware.PolicySet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.RateLimit(policies.App))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	accountHandler := handlers.NewAccountHandler(services.Auth, services.Profile, cfg)
	noteHandler := handlers.NewNoteHandler(services.Note)

	r.Route("/api", func(r chi.Router) {
		// Public account routes
		r.With(middleware.RateLimit(policies.Login)).Post("/login", accountHandler.Login)
		r.With(middleware.RateLimit(policies.CreateAccount)).Post("/create-account", accountHandler.CreateAccount)
		r.Get("/isAuthenticated", accountHandler.IsAuthenticated)
		r.With(middleware.RateLimit(policies.Resend)).Post("/resend-verification", accountHandler.ResendVerification)
		r.Post("/verify-code", accountHandler.VerifyCode)

		// Profile routes (cookie session)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Get("/profile", accountHandler.GetProfile)
			r.With(middleware.RateLimit(policies.Login)).Put("/profile/change-username", accountHandler.ChangeUsername)
			r.With(middleware.RateLimit(policies.Login)).Put("/profile/change-password", accountHandler.ChangePassword)
			r.Delete("/profile/delete-profile", accountHandler.DeleteProfile)
			r.Post("/logout", accountHandler.Logout)
		})

		// Note routes (cookie session, verified accounts only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Use(middleware.RequireVerified(services.Profile))

			r.Get("/notes", noteHandler.List)
			r.Post("/notes", noteHandler.Create)
			r.Get("/notes/{id}", noteHandler.Get)
			r.Put("/notes/{id}", noteHandler.Update)
			r.Delete("/notes/{id}", noteHandler.Delete)
		})

		// Admin routes (bearer token)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthBearer(services.Auth))
			r.Use(middleware.RequireAdmin)

			r.Post("/admin/user", accountHandler.GetUserByEmail)
		})
	})

	return r
}
