// Package main is the entrypoint for the lead-site API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/northbeam/leadsite/internal/cache"
	"github.com/northbeam/leadsite/internal/config"
	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/dispatch"
	"github.com/northbeam/leadsite/internal/errtrack"
	"github.com/northbeam/leadsite/internal/handler"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/middleware"
	"github.com/northbeam/leadsite/internal/outbound"
	"github.com/northbeam/leadsite/internal/ratelimit"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/server"
	"github.com/northbeam/leadsite/internal/service"
)

// sweepInterval is how often expired in-memory rate limit windows are dropped.
const sweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if enabled, err := errtrack.Init(errtrack.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Release:     cfg.AppVersion,
	}); err != nil {
		logger.Error("failed to initialize error tracking", "error", err)
	} else if enabled {
		logger.Info("error tracking enabled")
		defer errtrack.Flush(2 * time.Second)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		errtrack.CaptureError(err, nil)
		errtrack.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database")

	// Redis is optional unless it backs the rate limiter.
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			repo.Close()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		logger.Info("connected to Redis")
	}

	recorder := metrics.NewPrometheus()

	// Side effects
	templates, err := mail.LoadTemplates()
	if err != nil {
		return err
	}
	crmClient, err := crm.New(cfg.CRMWebhookURL, cfg.CRMWebhookSecret, !cfg.IsDevelopment(), logger)
	if err != nil {
		return err
	}
	if crmClient.Enabled() {
		logger.Info("CRM forwarding enabled", "host", outbound.ExtractHost(cfg.CRMWebhookURL))
	}
	dispatcher := dispatch.New(cfg.SideEffectTimeout, logger, recorder)

	notifier := service.NewNotifier(service.NotifierConfig{
		Dispatcher:  dispatcher,
		Mailer:      newMailer(cfg, logger),
		Templates:   templates,
		CRM:         crmClient,
		TeamAddress: cfg.MailTeamAddress,
		SiteURL:     cfg.SiteURL,
		Logger:      logger,
	})

	// Initialize services
	contactService := service.NewContactService(repo, notifier, cfg.DefaultLocale, logger, recorder)
	newsletterService := service.NewNewsletterService(repo, notifier, service.NewsletterConfig{
		PublicAPIURL:  cfg.PublicAPIURL,
		TokenTTL:      cfg.NewsletterTokenTTL,
		DefaultLocale: cfg.DefaultLocale,
	}, logger, recorder)
	toolService := service.NewToolService(repo, notifier, cfg.DefaultLocale, logger, recorder)
	assessmentService := service.NewAssessmentService(repo, notifier, cfg.DefaultLocale, logger, recorder)
	adminService := service.NewAdminService(repo, logger)

	// Rate limiting
	limiterCtx, stopLimiters := context.WithCancel(ctx)
	formsLimiter := newLimiter(limiterCtx, cfg, cacheClient, cfg.RateLimitFormsMax, cfg.RateLimitFormsWindow, logger)
	toolsLimiter := newLimiter(limiterCtx, cfg, cacheClient, cfg.RateLimitToolsMax, cfg.RateLimitToolsWindow, logger)
	adminLimiter := newLimiter(limiterCtx, cfg, cacheClient, cfg.RateLimitAdminMax, cfg.RateLimitAdminWindow, logger)

	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}

	r := handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Metrics:       recorder,
		CORS:          corsConfig(cfg),
		IsDevelopment: cfg.IsDevelopment(),
		MaxBodySize:   cfg.MaxRequestBodySize,
	}, handler.Routes{
		Info:        handler.New(cfg.AppVersion),
		Health:      handler.NewHealthHandler(repo, cacheChecker, logger),
		Contact:     handler.NewContactHandler(contactService, logger),
		Newsletter:  handler.NewNewsletterHandler(newsletterService, cfg.SiteURL, logger),
		Calculators: handler.NewCalculatorHandler(toolService, logger),
		Assessments: handler.NewAssessmentHandler(assessmentService, logger),
		Admin:       handler.NewAdminHandler(adminService, logger),
		Metrics:     recorder.Handler(),
		FormsLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: cfg.RateLimitEnabled,
			Group:   ratelimit.GroupForms,
			Limiter: formsLimiter,
			Logger:  logger,
			Metrics: recorder,
		}),
		ToolsLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: cfg.RateLimitEnabled,
			Group:   ratelimit.GroupTools,
			Limiter: toolsLimiter,
			Logger:  logger,
			Metrics: recorder,
		}),
		AdminLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: cfg.RateLimitEnabled,
			Group:   ratelimit.GroupAdmin,
			Limiter: adminLimiter,
			Logger:  logger,
			Metrics: recorder,
		}),
		AdminAuth: middleware.AdminAuth(adminService, func(err error) bool {
			return errors.Is(err, service.ErrInvalidCredentials)
		}, logger),
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Registered first, closed last.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("rate limiters", func(context.Context) error {
		stopLimiters()
		return nil
	})
	srv.OnShutdown("side effects", dispatcher.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", cfg.AppVersion,
		"rate_limit_backend", cfg.RateLimitBackend,
		"mail_transport", cfg.MailTransport,
	)

	return srv.Run(ctx)
}

// newLimiter builds the limiter for one group. The memory backend sweeps
// expired windows until ctx is cancelled.
func newLimiter(ctx context.Context, cfg *config.Config, cacheClient *cache.Cache, limit int, window time.Duration, logger *slog.Logger) ratelimit.Limiter {
	if cfg.RateLimitBackend == config.RateLimitBackendRedis && cacheClient != nil {
		return ratelimit.NewRedis(cacheClient, limit, window, logger)
	}
	limiter := ratelimit.NewMemory(limit, window)
	go limiter.Run(ctx, sweepInterval)
	return limiter
}

func newMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	if cfg.MailTransport == config.MailTransportHTTP {
		return mail.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, outbound.NewHTTPClient())
	}
	return mail.NewLogMailer(logger)
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "leadsite")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
