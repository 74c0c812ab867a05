package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adwork/internal/http/handlers"
	"adwork/internal/middleware"
)

// NewRouter wires the API surface. CountryLookup may be nil when no GeoIP
// database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Locale(app.Cfg.DefaultLocale, lookup),
		middleware.Logger(*app.Log),
		middleware.CORS(app.Cfg.AllowedOrigins),
		middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", app.Signup)
		r.Post("/signin", app.Signin)
	})

	// Stripe signs the webhook itself; bearer auth does not apply.
	r.Post("/v1/payment/webhook", app.PaymentWebhook)

	// The community subtree is registered once: mounting an authed
	// Route("/v1/community") alongside a top-level public GET would shadow
	// the public feed, so the optional-auth GET lives inside the mount.
	r.Route("/v1/community", func(r chi.Router) {
		r.With(middleware.AuthOptional(app.Cfg.JWTSecret)).
			Get("/", app.CommunityList)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(app.Cfg.JWTSecret))
			r.Post("/", app.CommunityCreate)
			r.Post("/share", app.CommunityShare)
			r.Get("/my", app.CommunityMine)
			r.Delete("/{id}", app.CommunityDelete)
			r.Post("/{id}/like", app.CommunityLike)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(app.Cfg.JWTSecret))

		r.Get("/v1/me", app.Me)

		r.Route("/v1/generate-ad", func(r chi.Router) {
			r.Post("/", app.GenerateAd)
			r.Get("/history", app.GenerationHistory)
			r.Get("/{id}", app.GenerationStatus)
			r.Delete("/{id}", app.GenerationDelete)
		})

		r.Post("/v1/payment/upgrade", app.PaymentUpgrade)
	})

	return r
}
