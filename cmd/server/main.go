package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opsdesk/admin-console-go/internal/audit"
	"github.com/opsdesk/admin-console-go/internal/config"
	"github.com/opsdesk/admin-console-go/internal/database"
	"github.com/opsdesk/admin-console-go/internal/handler"
	"github.com/opsdesk/admin-console-go/internal/identity"
	"github.com/opsdesk/admin-console-go/internal/impersonation"
	"github.com/opsdesk/admin-console-go/internal/middleware"
	"github.com/opsdesk/admin-console-go/internal/redis"
	"github.com/opsdesk/admin-console-go/internal/repository"
	"github.com/opsdesk/admin-console-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	walletRepo := repository.NewWalletRepository(db.DB)
	prefRepo := repository.NewPreferenceRepository(db.DB)
	docRepo := repository.NewDocumentRepository(db.DB)
	auditRepo := repository.NewAuditLogRepository(db.DB)

	var provider identity.Provider
	if cfg.IdentityConfigured() {
		provider = identity.NewJWTProvider(
			cfg.IdentitySecret, cfg.IdentityIssuer, config.DelegatedTokenTTL, userRepo,
		)
	} else {
		log.Warn().Msg("identity provider not configured: impersonation endpoints will answer 501")
	}

	codec := impersonation.NewCodec(cfg.ImpersonationSecret, cfg.ImpersonationTTL())
	cookieOpts := impersonation.DefaultCookieOptions(cfg.ImpersonationTTL(), isProduction)
	auditSink := audit.NewDBSink(auditRepo)

	impersonationService := service.NewImpersonationService(provider, codec, auditSink, cfg.ExitDefaultPath)
	directoryService := service.NewDirectoryService(userRepo, walletRepo, prefRepo, docRepo, auditRepo)

	adminGate := middleware.NewAdminGate(provider)
	startLimiter := middleware.NewStartRateLimiter(redisClient.Client, cfg.StartLimitPerMin)

	impersonationHandler := handler.NewImpersonationHandler(impersonationService, cookieOpts)
	directoryHandler := handler.NewDirectoryHandler(directoryService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(middleware.BodyLimit(middleware.DefaultMaxBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/impersonate", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(isProduction))
		r.Mount("/", impersonationHandler.Routes(adminGate.Handler, startLimiter.Handler))
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(isProduction))
		r.Use(adminGate.Handler)
		r.Mount("/", directoryHandler.Routes())
	})

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
