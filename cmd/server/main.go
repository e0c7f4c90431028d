package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"postforge/internal/adapters/api"
	"postforge/internal/adapters/api/middleware"
	"postforge/internal/adapters/db/memory"
	pgrepo "postforge/internal/adapters/db/postgres"
	"postforge/internal/config"
	"postforge/internal/domain/content"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.LoadConfig()

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Bool("db_enabled", cfg.Database.Enabled).
		Bool("auth_configured", cfg.Auth.Secret != "").
		Msg("Starting postforge server")

	if cfg.Auth.Secret == "" {
		// The authenticator refuses every request without a secret; start
		// anyway so the misconfiguration is observable, not silent.
		log.Warn().Msg("AUTH_JWT_SECRET is not set, all authenticated requests will fail")
	}

	// Initialize repositories (choose Postgres or in-memory)
	var sourceRepo content.SourceRepository
	var postRepo content.PostRepository

	if cfg.Database.Enabled {
		log.Info().Msg("Initializing Postgres repositories")
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := pgrepo.RunMigrations(ctx, db, cfg.Database.Migrations); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		cancel()

		sourceRepo = pgrepo.NewSourceRepository(db)
		postRepo = pgrepo.NewPostRepository(db)
	} else {
		log.Info().Msg("Initializing in-memory repositories")
		sourceRepo = memory.NewSourceRepository()
		postRepo = memory.NewPostRepository()
	}

	// Initialize API handler
	handler := api.NewHandler(sourceRepo, postRepo)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	// Register routes behind the request authenticator
	requireAuth := middleware.RequireAuth(&cfg.Auth)
	handler.RegisterRoutes(r, requireAuth)

	// Start server
	log.Info().Msgf("Starting postforge server on port %s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
