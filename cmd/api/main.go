package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aymenjlassi/darna-backend/api/routes"
	"github.com/aymenjlassi/darna-backend/internal/attachments"
	"github.com/aymenjlassi/darna-backend/internal/loans"
	"github.com/aymenjlassi/darna-backend/internal/profiles"
	"github.com/aymenjlassi/darna-backend/internal/properties"
	"github.com/aymenjlassi/darna-backend/internal/registrations"
	"github.com/aymenjlassi/darna-backend/pkg/config"
	"github.com/aymenjlassi/darna-backend/pkg/db"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
	"github.com/aymenjlassi/darna-backend/pkg/metrics"
	"github.com/aymenjlassi/darna-backend/pkg/migrate"
	"github.com/aymenjlassi/darna-backend/pkg/outbox"
	"github.com/aymenjlassi/darna-backend/pkg/redis"
	"github.com/aymenjlassi/darna-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	uploader, err := attachments.NewUploader(gcsClient, cfg.GCS.BucketName, cfg.Uploads.AttachTimeout, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create document uploader", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	profileRepo := profiles.NewRepository(dbClient.DB())
	propertyRepo := properties.NewRepository(dbClient.DB())
	registrationRepo := registrations.NewRepository(dbClient.DB())
	loanRepo := loans.NewRepository(dbClient.DB())

	profileService, err := profiles.NewService(profileRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	propertyService, err := properties.NewService(propertyRepo, profileRepo, uploader, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create property service", err)
		os.Exit(1)
	}

	registrationService, err := registrations.NewService(registrationRepo, profileRepo, dbClient, outboxService, uploader, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create registration service", err)
		os.Exit(1)
	}

	loanService, err := loans.NewService(loanRepo, profileRepo, propertyRepo, registrationRepo, dbClient, outboxService, uploader, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create loan service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			profileService,
			propertyService,
			registrationService,
			loanService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
