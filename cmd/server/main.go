package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/MadScientist85/Ai-Web-App/config"
	"github.com/MadScientist85/Ai-Web-App/internal/auth"
	"github.com/MadScientist85/Ai-Web-App/internal/dispatch"
	"github.com/MadScientist85/Ai-Web-App/internal/history"
	"github.com/MadScientist85/Ai-Web-App/internal/logging"
	"github.com/MadScientist85/Ai-Web-App/internal/profile"
	"github.com/MadScientist85/Ai-Web-App/internal/project"
	"github.com/MadScientist85/Ai-Web-App/internal/registry"
	"github.com/MadScientist85/Ai-Web-App/internal/seeder"
	"github.com/MadScientist85/Ai-Web-App/internal/server"
	"github.com/MadScientist85/Ai-Web-App/internal/telemetry"
)

type schemaStore interface {
	EnsureSchema(ctx context.Context) error
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Init logging and telemetry
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	shutdownTracer, err := telemetry.InitTracer("ai-web-app", cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer shutdownTracer()

	// 3. Build the provider registry
	specs := registry.DefaultSpecs()
	regOpts := []registry.Option{registry.WithDefault(registry.DefaultProvider)}
	if cfg.ProvidersFile != "" {
		f, err := registry.LoadFile(cfg.ProvidersFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load providers file")
		}
		specs = f.Providers
		regOpts = []registry.Option{registry.WithDefault(f.Default)}
	}
	reg, err := registry.New(specs, regOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid provider configuration")
	}
	for _, p := range reg.ListOrdered() {
		logger.Info().
			Str("provider", p.Name).
			Str("model", p.ModelID).
			Int("priority", p.Priority).
			Bool("configured", reg.IsConfigured(p)).
			Msg("provider registered")
	}
	logger.Info().Str("provider", reg.FirstConfigured().Name).Msg("first configured provider")

	// 4. Init dispatcher
	tracer := otel.GetTracerProvider().Tracer("ai-web-app")
	dispatchOpts := []dispatch.Option{
		dispatch.WithProbeBeforeUse(cfg.ProbeBeforeUse),
		dispatch.WithLogger(logger.With().Str("component", "dispatch").Logger()),
		dispatch.WithTracer(tracer),
	}
	if cfg.CircuitBreaker {
		dispatchOpts = append(dispatchOpts, dispatch.WithCircuitBreaker(dispatch.DefaultBreakerSettings()))
	}
	dispatcher := dispatch.New(reg, dispatchOpts...)

	// 5. Connect PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping postgres")
	}
	logger.Info().Msg("PostgreSQL connected")

	// 6. Connect Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping redis")
	}
	logger.Info().Msg("Redis connected")

	// 7. Init stores
	authStore := auth.NewPostgresStore(pool)
	projectStore := project.NewPostgresStore(pool)
	profileStore := profile.NewPostgresStore(pool)
	historyStore := history.NewPostgresStore(pool)

	for _, s := range []schemaStore{authStore, projectStore, profileStore, historyStore} {
		if err := s.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
	}

	// 8. Seed dev API key if RUN_SEED=true
	if cfg.RunSeed {
		seeder.Seed(ctx, authStore, profileStore, logger)
	}

	// 9. Init HTTP handler
	handler := server.NewHandler(server.Deps{
		Generator:         dispatcher,
		Catalog:           reg,
		Projects:          projectStore,
		Profiles:          profileStore,
		History:           historyStore,
		Tracer:            tracer,
		Logger:            logger,
		GenerationTimeout: cfg.GenerationTimeout,
	})
	router := server.NewRouter(handler, auth.NewMiddleware(authStore, rdb), logger)

	// 10. Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	handler.Wait()
	logger.Info().Msg("server stopped")
}
