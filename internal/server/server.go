// Package server wires the datastores, usecases, and handlers into an HTTP
// server. This is the composition root: every dependency is assembled here
// and nowhere else.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/auth"
	"github.com/creatorhub/creator-hub-api/internal/cache"
	"github.com/creatorhub/creator-hub-api/internal/config"
	"github.com/creatorhub/creator-hub-api/internal/handler"
	"github.com/creatorhub/creator-hub-api/internal/mailer"
	"github.com/creatorhub/creator-hub-api/internal/middleware"
	mongoplatform "github.com/creatorhub/creator-hub-api/internal/platform/mongo"
	"github.com/creatorhub/creator-hub-api/internal/provider"
	"github.com/creatorhub/creator-hub-api/internal/repository"
	"github.com/creatorhub/creator-hub-api/internal/usecase"
	"github.com/creatorhub/creator-hub-api/internal/validation"
)

// Server holds the router and the connections it owns.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *zerolog.Logger

	pg    *sql.DB
	mongo *mongoplatform.Databases
	redis *goredis.Client
}

// New assembles the server from already-opened datastore connections, which
// it takes ownership of and closes on shutdown.
func New(
	ctx context.Context,
	cfg *config.Config,
	logger *zerolog.Logger,
	pg *sql.DB,
	mongoDBs *mongoplatform.Databases,
	redisClient *goredis.Client,
) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		pg:     pg,
		mongo:  mongoDBs,
		redis:  redisClient,
	}

	validate, err := validation.New()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	// Repositories.
	userRepo := repository.NewUserPostgresRepository(pg)
	providerRepo := repository.NewProviderPostgresRepository(pg)
	walletRepo := repository.NewWalletPostgresRepository(pg)
	statsRepo := repository.NewStatsPostgresRepository(pg)
	accountRepo := repository.NewAccountMongoRepository(ctx, logger, mongoDBs.Auth)
	sessionRepo := repository.NewSessionMongoRepository(mongoDBs.Auth)
	tokenRepo := repository.NewPasswordResetTokenMongoRepository(mongoDBs.Auth)
	activityRepo := repository.NewActivityMongoRepository(mongoDBs.Logs)

	// Caches.
	profileCache := cache.NewProfileCache(redisClient, cfg.Redis.ProfileTTL)
	rankCache := cache.NewRankCache(redisClient, cfg.Redis.RankTTL)

	// Usecases.
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)
	profileUsecase := usecase.NewProfileUsecase(userRepo, providerRepo, walletRepo, activityRepo, profileCache, logger)
	googleVerifier := provider.NewGoogleVerifier(cfg.Google.ClientID)
	authUsecase := usecase.NewAuthUsecase(accountRepo, sessionRepo, providerRepo, profileUsecase, googleVerifier, jwtAuth, cfg)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(accountRepo, tokenRepo, jwtAuth, mailer.NewMailer(logger), cfg)
	dashboardUsecase := usecase.NewDashboardUsecase(userRepo, statsRepo, activityRepo, rankCache, logger)

	// Handlers.
	guard := middleware.Authenticate(jwtAuth, cfg.Token.AccessTokenSecret)
	userHandler := handler.NewUserHandler(profileUsecase, validate, logger)
	authHandler := handler.NewAuthHandler(
		authUsecase,
		passwordResetUsecase,
		guard,
		jwtAuth,
		cfg.Token.PasswordResetTokenSecret,
		validate,
		logger,
	)
	dashboardHandler := handler.NewDashboardHandler(dashboardUsecase, logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestLogger(logger))

	s.router.Route("/api", func(r chi.Router) {
		userHandler.Routes(r)
		authHandler.Routes(r)
		dashboardHandler.Routes(r)
	})

	return s, nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully and closes the datastore connections.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Int("port", s.cfg.Server.Port).Msg("server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	s.close()
	s.logger.Info().Msg("server stopped")

	return nil
}

func (s *Server) close() {
	if err := s.pg.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mongo.Close(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close mongo")
	}

	if err := s.redis.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close redis")
	}
}
