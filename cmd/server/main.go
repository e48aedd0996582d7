package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/bakehouse/internal"
	"github.com/dukerupert/bakehouse/internal/auth"
	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/email"
	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/handler/admin"
	"github.com/dukerupert/bakehouse/internal/handler/storefront"
	"github.com/dukerupert/bakehouse/internal/memory"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/postgres"
	"github.com/dukerupert/bakehouse/internal/router"
	"github.com/dukerupert/bakehouse/internal/routes"
	"github.com/dukerupert/bakehouse/internal/service"
	"github.com/dukerupert/bakehouse/internal/storage"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/dukerupert/bakehouse/web"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "bakehouse"

// stores bundles the record stores for the configured driver. pool is nil
// for the in-memory driver.
type stores struct {
	products domain.ProductRepository
	contacts domain.ContactRepository
	pool     *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store; products and inquiries are lost on restart")
		return &stores{
			products: memory.NewProductStore(),
			contacts: memory.NewContactStore(),
		}, nil
	}

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(ctx, sqlDB, logger); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl, postgres.PoolConfig{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		ConnectTimeout:  5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &stores{
		products: postgres.NewProductRepository(pool),
		contacts: postgres.NewContactRepository(pool),
		pool:     pool,
	}, nil
}

// newNotifier returns nil when email is switched off, which disables
// contact alerts without failing intake.
func newNotifier(cfg *internal.Config, logger *slog.Logger) (service.Notifier, error) {
	if cfg.Contact.NotifyAddress == "" {
		logger.Warn("CONTACT_EMAIL not set; contact notifications disabled")
		return nil, nil
	}

	sender, err := email.NewSender(cfg.Email, logger)
	if errors.Is(err, email.ErrNotConfigured) {
		logger.Warn("Email provider not configured; contact notifications disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}

	svc, err := email.NewService(sender, cfg.Email.From, cfg.Email.FromName, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("Email notifications enabled", "provider", cfg.Email.Provider)
	return svc, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	imageStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Image storage ready", "provider", cfg.Storage.Provider)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics(metricsNamespace, registry)
	businessMetrics := telemetry.NewBusinessMetrics(metricsNamespace, registry)

	// Services
	catalogService := service.NewCatalogService(st.products, logger, businessMetrics)
	imageService := service.NewImageService(imageStorage, st.products, cfg.Storage.CacheControl, logger, businessMetrics)
	storefrontService := service.NewStorefrontService(st.products, logger, businessMetrics)
	contactService := service.NewContactService(st.contacts, notifier, service.ContactConfig{
		NotifyAddress: cfg.Contact.NotifyAddress,
		Async:         cfg.Contact.NotifyAsync,
		Timeout:       cfg.Contact.NotifyTimeout,
	}, logger, businessMetrics)

	// Templates
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	sessions, err := middleware.NewSessionManager(middleware.SessionConfig{
		Secret: cfg.Admin.SessionSecret,
		MaxAge: cfg.Admin.SessionMaxAge,
		Secure: cfg.IsProd(),
	})
	if err != nil {
		return err
	}

	authenticator, err := auth.NewAuthenticator(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}

	contactLimiter := middleware.NewRateLimiter(middleware.ContactRateLimiterConfig())
	defer contactLimiter.Stop()
	loginLimiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig())
	defer loginLimiter.Stop()

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.Storage.PublicURL)
	if !cfg.IsProd() {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.ClientIP(cfg.TrustedProxy),
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		sessions.WithAdmin,
		middleware.WithRequestLogger(logger),
		middleware.AccessLog,
		telemetry.SentryContextMiddleware(func(ctx context.Context) *telemetry.UserInfo {
			if a := middleware.GetAdmin(ctx); a != nil {
				return &telemetry.UserInfo{ID: a.Email, Email: a.Email}
			}
			return nil
		}),
	)

	r.Static("/static/", web.Static(), "public, max-age=86400")
	if cfg.Storage.Provider == "local" {
		r.Static(cfg.Storage.LocalURL+"/", os.DirFS(cfg.Storage.LocalPath), cfg.Storage.CacheControl)
	}

	// Metrics endpoint; restrict at the proxy in production.
	r.Handle(http.MethodGet, "/metrics", httpMetrics.Handler())

	var pinger handler.Pinger
	if st.pool != nil {
		pinger = st.pool
	}
	r.Get("/health", handler.Health(pinger))

	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		HomeHandler:    storefront.NewHomeHandler(storefrontService, renderer, cfg.StoreName),
		ContactHandler: storefront.NewContactHandler(contactService),
		ContactLimiter: contactLimiter,
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		Sessions:       sessions,
		LoginHandler:   admin.NewLoginHandler(authenticator, sessions, renderer, businessMetrics),
		ProductHandler: admin.NewProductHandler(catalogService, imageService, renderer),
		LoginLimiter:   loginLimiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       middleware.UploadTimeout,
		WriteTimeout:      middleware.UploadTimeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "base_url", cfg.BaseURL, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	if err := contactService.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending contact notifications abandoned", "error", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
