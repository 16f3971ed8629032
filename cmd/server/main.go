package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/clients/nager"
	"github.com/breadline/bakeplan/internal/clients/openmeteo"
	"github.com/breadline/bakeplan/internal/config"
	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/forecasting"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/internal/modules/weather"
	"github.com/breadline/bakeplan/internal/scheduler"
	"github.com/breadline/bakeplan/internal/server"
	"github.com/breadline/bakeplan/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting bakeplan")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if err := registerJobs(sched, db, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, db *database.DB, cfg *config.Config, log zerolog.Logger) error {
	settingsRepo := settings.NewRepository(db, log)
	weatherRepo := weather.NewRepository(db, log)
	calendarRepo := calendar.NewRepository(db, log)

	weatherClient := openmeteo.NewClient(cfg.Latitude, cfg.Longitude, log)
	holidayClient := nager.NewClient(cfg.HolidayCountry, log)
	trainer := forecasting.NewTrainer(db, settingsRepo, log)

	// Weather forecast every morning before the bakery plans the day
	if err := sched.AddJob("0 0 5 * * *", scheduler.NewWeatherRefreshJob(weatherClient, weatherRepo, log)); err != nil {
		return err
	}

	// Holidays change rarely; weekly is plenty
	if err := sched.AddJob("0 30 5 * * SUN", scheduler.NewHolidayRefreshJob(holidayClient, calendarRepo, settingsRepo, log)); err != nil {
		return err
	}

	// Retrain after the week's sales have usually been loaded
	if err := sched.AddJob("0 0 6 * * MON", scheduler.NewTrainingJob(trainer, log)); err != nil {
		return err
	}

	return nil
}
