package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/config"
	mongoplatform "github.com/creatorhub/creator-hub-api/internal/platform/mongo"
	"github.com/creatorhub/creator-hub-api/internal/platform/postgres"
	redisplatform "github.com/creatorhub/creator-hub-api/internal/platform/redis"
	"github.com/creatorhub/creator-hub-api/internal/server"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := postgres.Connect(ctx, cfg.Postgres.URL, postgres.Options{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := postgres.EnsureSchema(ctx, pg); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure postgres schema")
	}

	mongoDBs, err := mongoplatform.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.AuthDatabase, cfg.Mongo.LogsDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	redisClient, err := redisplatform.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	srv, err := server.New(ctx, cfg, &logger, pg, mongoDBs, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}
