package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/pkg/formulas"
)

// Minimum usable rows to fit at all, and minimum rows before a
// cross-validated error is attempted.
const (
	minTrainRows = 20
	minCVRows    = 30
)

// TrainResult reports the outcome of training one item's model. Too little
// history is a normal outcome (Saved=false), not an error.
type TrainResult struct {
	ItemID   int64    `json:"item_id"`
	NSamples int      `json:"n_samples"`
	CVMAPE   *float64 `json:"cv_mape"`
	Saved    bool     `json:"saved"`
}

// Trainer fits and persists per-item ridge models.
type Trainer struct {
	db           *database.DB
	settingsRepo *settings.Repository
	log          zerolog.Logger
}

// NewTrainer creates a new trainer.
func NewTrainer(db *database.DB, settingsRepo *settings.Repository, log zerolog.Logger) *Trainer {
	return &Trainer{
		db:           db,
		settingsRepo: settingsRepo,
		log:          log.With().Str("service", "trainer").Logger(),
	}
}

// TrainItem fits a model on one item's full history and persists it,
// replacing any previous artifact for the item.
func (t *Trainer) TrainItem(itemID int64) (TrainResult, error) {
	cfg, err := t.settingsRepo.Load()
	if err != nil {
		return TrainResult{ItemID: itemID}, err
	}
	return t.trainItem(itemID, cfg)
}

func (t *Trainer) trainItem(itemID int64, cfg *settings.Settings) (TrainResult, error) {
	history, err := sales.NewRepository(t.db, t.log).ItemHistory(itemID)
	if err != nil {
		return TrainResult{ItemID: itemID}, err
	}
	if len(history) == 0 {
		return TrainResult{ItemID: itemID}, nil
	}

	X, y, names := BuildFeatures(history, cfg.SundayClosed)
	if len(y) < minTrainRows {
		return TrainResult{ItemID: itemID, NSamples: len(y)}, nil
	}

	model, err := FitRidge(X, y, ridgeAlpha)
	if err != nil {
		return TrainResult{ItemID: itemID, NSamples: len(y)}, fmt.Errorf("failed to fit model for item %d: %w", itemID, err)
	}

	cvMAPE := crossValidateMAPE(X, y, cfg.CVTrainFractions, cfg.CVMinFoldRows)

	art := &Artifact{
		Algo:         ridgeAlgo,
		FeatureNames: names,
		Model:        *model,
	}

	tx, err := t.db.Begin()
	if err != nil {
		return TrainResult{ItemID: itemID, NSamples: len(y)}, err
	}
	defer tx.Rollback()

	if err := NewModelRepository(tx, t.log).Save(itemID, art, len(y), cvMAPE, time.Now()); err != nil {
		return TrainResult{ItemID: itemID, NSamples: len(y)}, err
	}
	if err := tx.Commit(); err != nil {
		return TrainResult{ItemID: itemID, NSamples: len(y)}, err
	}

	t.log.Info().Int64("item_id", itemID).Int("n_samples", len(y)).
		Msg("Trained and saved model")
	return TrainResult{ItemID: itemID, NSamples: len(y), CVMAPE: cvMAPE, Saved: true}, nil
}

// TrainAll trains every item with at least minSamples observations, most
// history first.
func (t *Trainer) TrainAll(minSamples int) ([]TrainResult, error) {
	cfg, err := t.settingsRepo.Load()
	if err != nil {
		return nil, err
	}

	counts, err := sales.NewRepository(t.db, t.log).ItemCounts(minSamples)
	if err != nil {
		return nil, err
	}

	results := make([]TrainResult, 0, len(counts))
	for _, c := range counts {
		res, err := t.trainItem(c.ItemID, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

// crossValidateMAPE estimates generalization error with rolling-origin
// folds: for each train fraction, fit a fresh model on the chronological
// prefix and score the suffix. Returns nil ("undefined") when there are
// fewer than minCVRows samples or no fold has at least minFoldRows rows on
// both sides of the split.
func crossValidateMAPE(X [][]float64, y []float64, fractions []float64, minFoldRows int) *float64 {
	n := len(y)
	if n < minCVRows {
		return nil
	}

	var scores []float64
	for _, frac := range fractions {
		k := int(float64(n) * frac)
		if k < minFoldRows || n-k < minFoldRows {
			continue
		}

		model, err := FitRidge(X[:k], y[:k], ridgeAlpha)
		if err != nil {
			continue
		}

		score := formulas.MAPE(y[k:], model.Predict(X[k:]))
		if !math.IsNaN(score) {
			scores = append(scores, score)
		}
	}

	if len(scores) == 0 {
		return nil
	}
	avg := formulas.Mean(scores)
	return &avg
}
