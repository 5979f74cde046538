package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/alert"
	"github.com/safestreets/safemap/internal/auth"
	"github.com/safestreets/safemap/internal/config"
	"github.com/safestreets/safemap/internal/geocode"
	v1 "github.com/safestreets/safemap/internal/handler/http/v1"
	"github.com/safestreets/safemap/internal/service"
	"github.com/safestreets/safemap/internal/store"
	"github.com/safestreets/safemap/pkg/logger"
	"github.com/safestreets/safemap/pkg/postgres"
	redisclient "github.com/safestreets/safemap/pkg/redis"

	_ "github.com/safestreets/safemap/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Safety Incident Map API
// @version 1.0
// @description Community safety incident reporting and map visualization API.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Incident store: in-memory by default, postgres when configured.
	var incidentStore service.IncidentStore
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		if err := runMigrations(cfg, log); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		dbpool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbpool.Close()
		log.Info("Successfully connected to PostgreSQL")
		incidentStore = store.NewPostgres(dbpool)
	default:
		log.Info("Using in-memory incident store")
		incidentStore = store.NewMemory()
	}

	// Geocoder against postcodes.io.
	var geocoder geocode.Geocoder = geocode.NewPostcodesIOClient(cfg.GeocoderBaseURL, cfg.GeocoderTimeout, log)

	// Redis is optional: it adds the geocode cache and the alert queue.
	var alertPublisher alert.Publisher
	if cfg.RedisAddr != "" {
		redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")

		geocoder = geocode.NewCachedGeocoder(geocoder, redisClient, cfg.GeocodeCacheTTL, log)
		alertPublisher = alert.NewRedisPublisher(redisClient)

		alertWorker := alert.NewWorker(redisClient, log, cfg)
		alertWorker.Start(ctx)
	}

	// Admin gate with credentials from the environment.
	gate := auth.NewGate(auth.StaticCredentials{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}, log)

	reportService := service.NewReportService(incidentStore, geocoder, alertPublisher, log)

	handler := v1.NewHandler(reportService, gate, log)

	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
