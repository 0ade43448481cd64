package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/middleware"
)

// Routes holds the handlers and per-route middleware mounted by NewRouter.
// Nil rate limiters leave their group unthrottled; a nil Admin handler or
// AdminAuth disables the admin API. AdminLimit runs before AdminAuth so
// failed logins count against the caller.
type Routes struct {
	Info        *Handler
	Health      *HealthHandler
	Contact     *ContactHandler
	Newsletter  *NewsletterHandler
	Calculators *CalculatorHandler
	Assessments *AssessmentHandler
	Admin       *AdminHandler
	Metrics     http.Handler

	FormsLimit func(http.Handler) http.Handler
	ToolsLimit func(http.Handler) http.Handler
	AdminLimit func(http.Handler) http.Handler
	AdminAuth  func(http.Handler) http.Handler
}

// RouterConfig configures the global middleware chain.
type RouterConfig struct {
	Logger        *slog.Logger
	Metrics       metrics.Recorder
	CORS          middleware.CORSConfig
	IsDevelopment bool
	MaxBodySize   int64
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig, routes Routes) *chi.Mux {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	forms := orPassthrough(routes.FormsLimit)
	tools := orPassthrough(routes.ToolsLimit)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}
	r.Use(middleware.Metrics(cfg.Metrics))

	// Health and info endpoints
	r.Get("/healthz", routes.Health.Healthz)
	r.Get("/readyz", routes.Health.Readyz)
	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}
	r.Get("/", routes.Info.Hello)

	r.Route("/api", func(r chi.Router) {
		r.With(forms).Post("/contact", routes.Contact.Submit)

		r.Route("/newsletter", func(r chi.Router) {
			r.With(forms).Post("/subscribe", routes.Newsletter.Subscribe)
			r.Get("/confirm", routes.Newsletter.Confirm)
			r.Get("/unsubscribe", routes.Newsletter.Unsubscribe)
		})

		r.With(tools).Post("/calculators/{tool}", routes.Calculators.Run)

		r.Route("/assessments", func(r chi.Router) {
			r.With(forms).Post("/", routes.Assessments.Start)
			r.Get("/{id}", routes.Assessments.Get)
			r.With(forms).Post("/{id}/complete", routes.Assessments.Complete)
		})

		if routes.Admin != nil && routes.AdminAuth != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(orPassthrough(routes.AdminLimit))
				r.Use(routes.AdminAuth)
				r.Get("/contacts", routes.Admin.ListContacts)
				r.Get("/subscribers", routes.Admin.ListSubscribers)
				r.Get("/submissions", routes.Admin.ListSubmissions)
			})
		}
	})

	// 404 and 405 handlers
	r.NotFound(routes.Info.NotFound)
	r.MethodNotAllowed(routes.Info.MethodNotAllowed)

	return r
}
