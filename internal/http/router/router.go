// Package router arma el router HTTP de la aplicación.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seumatch/seumatch/internal/cache"
	"github.com/seumatch/seumatch/internal/http/handlers"
	"github.com/seumatch/seumatch/internal/http/middlewares"
	"github.com/seumatch/seumatch/internal/mail"
	"github.com/seumatch/seumatch/internal/push"
	"github.com/seumatch/seumatch/internal/session"
	"github.com/seumatch/seumatch/internal/theme"
)

// Deps son las dependencias del router.
type Deps struct {
	Manager     *session.Manager
	Cache       cache.Client
	Themes      *theme.Store
	Registrar   push.Registrar
	Deliverer   interface{ Deliver(*push.Message) }
	Contact     *mail.ContactMailer
	ThemeCookie string
	Secure      bool
	CORSOrigins []string
}

// New construye el handler raíz con middlewares y rutas.
func New(d Deps) http.Handler {
	auth := &handlers.AuthHandler{Manager: d.Manager}
	pushH := &handlers.PushHandler{Registrar: d.Registrar, Deliverer: d.Deliverer}
	themeH := &handlers.ThemeHandler{Store: d.Themes, CookieName: d.ThemeCookie, Secure: d.Secure}
	contactH := &handlers.ContactHandler{Mailer: d.Contact}
	healthH := &handlers.HealthHandler{Cache: d.Cache}
	landing := handlers.NewLandingHandler(d.ThemeCookie, theme.Light)

	r := chi.NewRouter()

	r.Get("/", landing.Index)
	r.Get("/healthz", healthH.Healthz)
	r.Get("/readyz", healthH.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
			r.Post("/social", auth.SocialLogin)
			r.Post("/logout", auth.Logout)
			r.Get("/session", auth.Session)
			r.Get("/token", auth.Token)
			r.Put("/profile", auth.UpdateProfile)
			r.Post("/verify-email", auth.VerifyEmail)
			r.Post("/reload", auth.Reload)
		})
		r.Route("/push", func(r chi.Router) {
			r.Get("/status", pushH.Status)
			r.Post("/register", pushH.Register)
			r.Get("/next", pushH.Next)
			r.Post("/incoming", pushH.Incoming)
		})
		r.Route("/theme", func(r chi.Router) {
			r.Get("/", themeH.Get)
			r.Put("/", themeH.Set)
			r.Post("/toggle", themeH.Toggle)
		})
		r.Post("/contact", contactH.Submit)
	})

	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithMetrics(),
		middlewares.WithCORS(d.CORSOrigins),
	)
}
