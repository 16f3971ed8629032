package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/clients/openmeteo"
	"github.com/breadline/bakeplan/internal/modules/weather"
)

const (
	forecastDays    = 7
	historyBackfill = 14 // days of recent history to re-pull each run
)

// WeatherRefreshJob keeps the weather table current: it pulls the next
// week's forecast and re-pulls the recent past so provisional forecast rows
// get replaced by archived observations.
type WeatherRefreshJob struct {
	client *openmeteo.Client
	repo   *weather.Repository
	log    zerolog.Logger
}

// NewWeatherRefreshJob creates a new weather refresh job
func NewWeatherRefreshJob(client *openmeteo.Client, repo *weather.Repository, log zerolog.Logger) *WeatherRefreshJob {
	return &WeatherRefreshJob{
		client: client,
		repo:   repo,
		log:    log.With().Str("job", "weather_refresh").Logger(),
	}
}

// Name returns the job name
func (j *WeatherRefreshJob) Name() string {
	return "weather_refresh"
}

// Run executes the weather refresh
func (j *WeatherRefreshJob) Run() error {
	startTime := time.Now()

	forecast, err := j.client.FetchForecast(forecastDays)
	if err != nil {
		return err
	}
	if err := j.repo.UpsertRange(forecast, openmeteo.SourceForecast); err != nil {
		return err
	}

	// The archive lags a couple of days behind real time; anything it does
	// not cover yet simply stays as the forecast row until the next run.
	end := time.Now().AddDate(0, 0, -2)
	start := end.AddDate(0, 0, -historyBackfill)
	history, err := j.client.FetchHistory(start, end)
	if err != nil {
		j.log.Warn().Err(err).Msg("History backfill failed, keeping forecast rows")
	} else if err := j.repo.UpsertRange(history, openmeteo.SourceArchive); err != nil {
		return err
	}

	j.log.Info().
		Int("forecast_days", len(forecast)).
		Int("history_days", len(history)).
		Dur("duration", time.Since(startTime)).
		Msg("Weather refresh completed")

	return nil
}
