package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"listingvideo/internal/http/handlers"
	"listingvideo/internal/infra"
	"listingvideo/internal/middleware"
)

// SupportedLocales are the languages descriptions can be written in. The
// first entry is the fallback.
var SupportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
}

// Options configures the cross-cutting middleware.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	VideoRatePerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID(opts.Logger),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(SupportedLocales),
	)

	r.Get("/healthz", app.Health)

	r.Post("/extract", app.Extract)
	r.Get("/proxy", app.Proxy)
	r.Post("/description", app.Description)
	r.Post("/voiceover", app.Voiceover)

	r.Route("/video", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.VideoRatePerMin, time.Minute)).Post("/", app.CreateVideo)
		r.Get("/{jobId}", app.GetVideo)
	})

	return r
}
