package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/breadline/bakeplan/internal/clients/nager"
	"github.com/breadline/bakeplan/internal/clients/openmeteo"
	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/catalog"
	"github.com/breadline/bakeplan/internal/modules/forecasting"
	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/internal/modules/weather"
	"github.com/breadline/bakeplan/internal/scheduler"
)

// setupRoutes wires module services and registers all routes
func (s *Server) setupRoutes() {
	settingsRepo := settings.NewRepository(s.db, s.log)
	weatherRepo := weather.NewRepository(s.db, s.log)
	calendarRepo := calendar.NewRepository(s.db, s.log)

	catalogService := catalog.NewService(s.db, settingsRepo, s.log)
	salesService := sales.NewService(s.db, settingsRepo, s.log)
	forecastService := forecasting.NewService(s.db, settingsRepo, weatherRepo, calendarRepo, s.log)
	trainer := forecasting.NewTrainer(s.db, settingsRepo, s.log)

	weatherClient := openmeteo.NewClient(s.cfg.Latitude, s.cfg.Longitude, s.log)
	holidayClient := nager.NewClient(s.cfg.HolidayCountry, s.log)
	weatherJob := scheduler.NewWeatherRefreshJob(weatherClient, weatherRepo, s.log)
	holidayJob := scheduler.NewHolidayRefreshJob(holidayClient, calendarRepo, settingsRepo, s.log)

	catalogHandler := catalog.NewHandler(catalogService, s.log)
	salesHandler := sales.NewHandler(salesService, s.log)
	settingsHandler := settings.NewHandler(settingsRepo, s.log)
	calendarHandler := calendar.NewHandler(calendarRepo, s.log)
	forecastHandler := forecasting.NewHandler(forecastService, trainer, s.db, s.log)

	// Health check
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", catalogHandler.HandleListItems)
			r.Post("/resolve", catalogHandler.HandleResolve)
			r.Put("/{id}", catalogHandler.HandleUpdateItem)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/ingest", salesHandler.HandleIngest)
		})

		r.Route("/forecasts", func(r chi.Router) {
			r.Post("/generate", forecastHandler.HandleGenerate)
			r.Post("/train", forecastHandler.HandleTrain)
			r.Get("/models", forecastHandler.HandleListModels)
			r.Get("/runs", forecastHandler.HandleListRuns)
			r.Get("/runs/{run_id}", forecastHandler.HandleGetRun)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", calendarHandler.HandleWeekEvents)
			r.Post("/", calendarHandler.HandleAddEvent)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.HandleGetSettings)
			r.Put("/", settingsHandler.HandleUpdateSettings)
		})

		// Manual refresh triggers for the scheduled sync jobs
		r.Route("/sync", func(r chi.Router) {
			r.Post("/weather", s.handleRunJob(weatherJob))
			r.Post("/holidays", s.handleRunJob(holidayJob))
		})
	})
}
