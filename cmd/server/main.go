package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/config"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/handlers"
	"github.com/civicsync/civicsync-backend/internal/middleware"
	"github.com/civicsync/civicsync-backend/internal/routes"
	"github.com/civicsync/civicsync-backend/internal/services"
	"github.com/civicsync/civicsync-backend/pkg/logger"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg := config.Load()
	logger.Setup(cfg.Environment)

	if !envLoaded {
		log.Debug().Msg("No .env file found")
	}

	log.Info().Msg("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.DisconnectPostgres()

	log.Info().Msg("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.DisconnectRedis()

	// Mongo holds the audit and view-event streams; the API degrades
	// gracefully without it
	log.Info().Msg("Connecting to MongoDB...")
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Warn().Err(err).Msg("MongoDB unavailable, audit and view events disabled")
	} else {
		defer database.DisconnectMongo()
	}

	var cloudinarySvc *services.CloudinaryService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		svc, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("Cloudinary init failed, image uploads disabled")
		} else {
			cloudinarySvc = svc
			log.Info().Msg("Cloudinary service initialized")
		}
	} else {
		log.Warn().Msg("Cloudinary credentials not set, image uploads disabled")
	}

	var notifier services.Notifier
	if cfg.SMTPConfigured() {
		notifier = services.NewSMTPNotifier(cfg)
		log.Info().Str("host", cfg.SMTPHost).Msg("SMTP notifier configured")
	} else {
		notifier = services.LogNotifier{}
		log.Warn().Msg("SMTP not configured, notifications go to the log")
	}

	handlers.Init(cfg, notifier, cloudinarySvc)

	scheduler := services.NewScheduler(notifier, cfg.DigestEnabled)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: security headers + in-process per-IP and login limiters.
	// Elsewhere: the Redis-backed limiter with IP blocking is enough.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Info().Msg("Production security enabled")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
