package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v76"

	"adwork/internal/adapter/repo"
	"adwork/internal/adapter/repo/memory"
	"adwork/internal/config"
	"adwork/internal/domain"
	"adwork/internal/entitlement"
	"adwork/internal/generation"
	"adwork/internal/http/handlers"
	"adwork/internal/http/httpapi"
	"adwork/internal/infra"
	"adwork/internal/infra/geoip"
	"adwork/internal/mediasink"
	"adwork/internal/middleware"
	"adwork/internal/providers/copywriter"
	"adwork/internal/providers/image"
	"adwork/internal/providers/video"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	// Repositories: Postgres when DATABASE_URL is set, in-memory otherwise
	// (local development without a database).
	var (
		generations domain.GenerationRepository
		users       domain.UserRepository
		posts       domain.PostRepository
	)
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		generations = repo.NewGenerationRepository(dbpool)
		users = repo.NewUserRepository(dbpool)
		posts = repo.NewPostRepository(dbpool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
		generations = memory.NewGenerationRepository()
		users = memory.NewUserRepository()
		posts = memory.NewPostRepository()
	}

	// Media sink: S3 when a bucket is configured, local disk otherwise.
	var sink mediasink.Sink
	if cfg.S3Bucket != "" {
		sink, err = mediasink.NewS3Sink(ctx, cfg.S3Bucket, cfg.S3Region, cfg.MediaBaseURL)
	} else {
		sink, err = mediasink.NewFileSink(cfg.StoragePath, cfg.MediaBaseURL)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media sink")
	}

	pipeline := generation.NewPipeline(generation.Options{
		Copywriter: copywriter.NewClient(copywriter.Options{
			APIToken: cfg.CopyAPIToken,
			BaseURL:  cfg.CopyBaseURL,
			Model:    cfg.CopyModel,
			Logger:   &logger,
		}),
		Images: image.NewClient(image.Options{
			APIToken: cfg.ImageAPIToken,
			BaseURL:  cfg.ImageBaseURL,
			Model:    cfg.ImageModel,
			Logger:   &logger,
		}),
		Videos: video.NewClient(video.Options{
			APIKey:  cfg.VideoAPIKey,
			BaseURL: cfg.VideoBaseURL,
			Model:   cfg.VideoModel,
			Logger:  &logger,
		}),
		Sink:    sink,
		Records: generations,
		Logger:  &logger,
	})

	stripe.Key = cfg.StripeAPIKey

	app := &handlers.App{
		Cfg:         cfg,
		Log:         &logger,
		Pipeline:    pipeline,
		Generations: generations,
		Users:       users,
		Posts:       posts,
		Gate:        entitlement.NewGate(users),
		Sink:        sink,
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
