package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/clients/nager"
	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/settings"
)

// HolidayRefreshJob keeps public holidays loaded for the current and next
// year so week forecasts near year boundaries always find their flags.
type HolidayRefreshJob struct {
	client       *nager.Client
	repo         *calendar.Repository
	settingsRepo *settings.Repository
	log          zerolog.Logger
}

// NewHolidayRefreshJob creates a new holiday refresh job
func NewHolidayRefreshJob(client *nager.Client, repo *calendar.Repository, settingsRepo *settings.Repository, log zerolog.Logger) *HolidayRefreshJob {
	return &HolidayRefreshJob{
		client:       client,
		repo:         repo,
		settingsRepo: settingsRepo,
		log:          log.With().Str("job", "holiday_refresh").Logger(),
	}
}

// Name returns the job name
func (j *HolidayRefreshJob) Name() string {
	return "holiday_refresh"
}

// Run executes the holiday refresh
func (j *HolidayRefreshJob) Run() error {
	cfg, err := j.settingsRepo.Load()
	if err != nil {
		return err
	}

	year := time.Now().Year()
	events, err := j.client.FetchYears([]int{year, year + 1}, cfg.HolidayUpliftPct)
	if err != nil {
		return err
	}

	if err := j.repo.ReplaceHolidays(events); err != nil {
		return err
	}

	j.log.Info().Int("holidays", len(events)).
		Int("from_year", year).Int("to_year", year+1).
		Msg("Holiday refresh completed")

	return nil
}
