package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/modules/forecasting"
)

const trainingMinSamples = 20

// TrainingJob retrains every eligible item model on a schedule so the week's
// forecast generation always finds fresh coefficients.
type TrainingJob struct {
	trainer *forecasting.Trainer
	log     zerolog.Logger
}

// NewTrainingJob creates a new training job
func NewTrainingJob(trainer *forecasting.Trainer, log zerolog.Logger) *TrainingJob {
	return &TrainingJob{
		trainer: trainer,
		log:     log.With().Str("job", "training").Logger(),
	}
}

// Name returns the job name
func (j *TrainingJob) Name() string {
	return "training"
}

// Run executes the scheduled retraining
func (j *TrainingJob) Run() error {
	startTime := time.Now()

	results, err := j.trainer.TrainAll(trainingMinSamples)
	if err != nil {
		return err
	}

	saved := 0
	for _, res := range results {
		if res.Saved {
			saved++
		}
	}

	j.log.Info().
		Int("candidates", len(results)).
		Int("trained", saved).
		Dur("duration", time.Since(startTime)).
		Msg("Scheduled training completed")

	return nil
}
