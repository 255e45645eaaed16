package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/api"
	"github.com/inkwell/inkwell-be/internal/config"
	"github.com/inkwell/inkwell-be/internal/database"
	"github.com/inkwell/inkwell-be/internal/logger"
	"github.com/inkwell/inkwell-be/internal/monitoring"
	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
	"github.com/inkwell/inkwell-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up upload stores (these create their directories)
	profileImages, err := uploads.New(cfg.ProfileUploadPath, cfg.AllowedImageTypes, cfg.MaxImageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize profile upload store")
	}
	blogImages, err := uploads.New(cfg.BlogUploadPath, cfg.BlogAllowedImageTypes, cfg.MaxBlogImageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blog upload store")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	sessionService := services.NewSessionService(db, time.Duration(cfg.SessionTTLHours)*time.Hour)
	blogService := services.NewBlogService(db, blogImages, eventService)

	// Set up and run the background session janitor
	janitor, err := monitoring.NewJanitor(sessionService, eventService, cfg.CleanupSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(hub, userService, sessionService, blogService, eventService,
		profileImages, blogImages, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
