package forecasting

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/breadline/bakeplan/internal/database"
)

const ridgeAlgo = "ridge+scaler"

// Artifact is the persisted per-item model: the fitted pipeline plus the
// ordered feature-name list it was trained with. Versionless; a retrain
// replaces it wholesale.
type Artifact struct {
	Algo         string   `msgpack:"algo"`
	FeatureNames []string `msgpack:"feature_names"`
	Model        Ridge    `msgpack:"model"`
}

// artifactMeta is the queryable metadata stored alongside the blob.
type artifactMeta struct {
	Algo         string   `json:"algo"`
	FeatureNames []string `json:"feature_names"`
}

// ModelRepository handles the per-item model store. The unique item_id
// index guarantees at most one live model per item.
type ModelRepository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewModelRepository creates a new model repository.
func NewModelRepository(db database.Queryer, log zerolog.Logger) *ModelRepository {
	return &ModelRepository{
		db:  db,
		log: log.With().Str("repo", "models").Logger(),
	}
}

// Save upserts the model for an item, replacing any prior artifact.
func (r *ModelRepository) Save(itemID int64, art *Artifact, nSamples int, cvMAPE *float64, now time.Time) error {
	blob, err := msgpack.Marshal(art)
	if err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}

	meta, err := json.Marshal(artifactMeta{Algo: art.Algo, FeatureNames: art.FeatureNames})
	if err != nil {
		return fmt.Errorf("failed to encode model metadata: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO models(item_id, algo, model_blob, features_json, n_samples, cv_mape, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			algo = excluded.algo,
			model_blob = excluded.model_blob,
			features_json = excluded.features_json,
			n_samples = excluded.n_samples,
			cv_mape = excluded.cv_mape,
			updated_at = excluded.updated_at
	`, itemID, art.Algo, blob, string(meta), nSamples, cvMAPE, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save model for item %d: %w", itemID, err)
	}

	return nil
}

// Get loads the model artifact for an item, or nil when no model exists.
func (r *ModelRepository) Get(itemID int64) (*Artifact, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT model_blob FROM models WHERE item_id = ?", itemID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model for item %d: %w", itemID, err)
	}

	var art Artifact
	if err := msgpack.Unmarshal(blob, &art); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact for item %d: %w", itemID, err)
	}

	return &art, nil
}

// ModelInfo is the metadata view of a stored model.
type ModelInfo struct {
	ItemID    int64    `json:"item_id"`
	Algo      string   `json:"algo"`
	NSamples  int      `json:"n_samples"`
	CVMAPE    *float64 `json:"cv_mape"`
	UpdatedAt string   `json:"updated_at"`
}

// List returns metadata for every stored model.
func (r *ModelRepository) List() ([]ModelInfo, error) {
	rows, err := r.db.Query(
		"SELECT item_id, algo, COALESCE(n_samples, 0), cv_mape, updated_at FROM models ORDER BY item_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var out []ModelInfo
	for rows.Next() {
		var info ModelInfo
		var cvMAPE sql.NullFloat64
		if err := rows.Scan(&info.ItemID, &info.Algo, &info.NSamples, &cvMAPE, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model info: %w", err)
		}
		if cvMAPE.Valid {
			info.CVMAPE = &cvMAPE.Float64
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}

	return out, nil
}
