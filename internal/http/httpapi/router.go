package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Options carries the cross-cutting request policy.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(*app.Logger),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/models", func(r chi.Router) {
		r.Get("/", app.ModelsList)
		r.Get("/{model_id}", app.ModelGet)
		r.Post("/{model_id}/estimate", app.ModelEstimate)
		r.Put("/{model_id}/adapters", app.AdapterModelsPut)
	})

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Get("/", app.GenerationsRecent)
		r.Get("/{generation_id}", app.GenerationStatus)
		r.Get("/{generation_id}/zip", app.GenerationZip)
	})

	r.Route("/v1/presets", func(r chi.Router) {
		r.Get("/{scope}", app.PresetsGet)
		r.Put("/{scope}", app.PresetsPut)
	})

	r.Route("/v1/providers", func(r chi.Router) {
		r.Get("/{provider}/key", app.ProviderKeyGet)
		r.Put("/{provider}/key", app.ProviderKeyPut)
	})

	return r
}
