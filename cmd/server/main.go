package main

import (

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/logging"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	files, err := storage.NewLocalStorage(cfg.MediaRoot, cfg.MaxUploadBytes)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare media storage")
	}

	store := repository.NewStore(database.GetDB())
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	google := services.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleCertsURL)
	defer google.Close()
	mailer := services.NewMailer(cfg, log)

	if cfg.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID not set; Google login is disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(log), metrics.Middleware())
	r.MaxMultipartMemory = 8 << 20

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Store:          store,
		Tokens:         tokens,
		Auth:           services.NewAuthService(store, tokens, google, mailer, cfg.FrontendBaseURL, log),
		Users:          services.NewUserService(store),
		Projects:       services.NewProjectService(store),
		Tasks:          services.NewTaskService(store),
		Comments:       services.NewCommentService(store),
		Attachments:    services.NewAttachmentService(store, files, log),
		Activity:       services.NewActivityService(store),
		Notifications:  services.NewNotificationService(store),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})

	// Start server
	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
