package forecasting

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

const defaultRunListLimit = 20

// Handler handles forecasting HTTP requests
type Handler struct {
	service *Service
	trainer *Trainer
	db      *database.DB
	log     zerolog.Logger
}

// NewHandler creates a new forecasting handler
func NewHandler(service *Service, trainer *Trainer, db *database.DB, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		trainer: trainer,
		db:      db,
		log:     log.With().Str("handler", "forecasting").Logger(),
	}
}

// HandleGenerate produces the order sheet for the requested week (next
// Monday when omitted) and persists it as a run.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekStart   string   `json:"week_start,omitempty"`
		UseModel    *bool    `json:"use_model,omitempty"`
		BlendWeight *float64 `json:"blend_weight,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var weekStart *time.Time
	if req.WeekStart != "" {
		ws, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
			return
		}
		weekStart = &ws
	}

	useModel := true
	if req.UseModel != nil {
		useModel = *req.UseModel
	}
	blendWeight := 0.5
	if req.BlendWeight != nil {
		blendWeight = *req.BlendWeight
	}
	if blendWeight < 0 || blendWeight > 1 {
		h.writeError(w, http.StatusBadRequest, "blend_weight must be within [0,1]")
		return
	}

	table, err := h.service.Generate(weekStart, useModel, blendWeight)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, table)
}

// HandleTrain fits and stores models for every item with enough history,
// or for a single item when the body names one.
func (h *Handler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID     *int64 `json:"item_id,omitempty"`
		MinSamples int    `json:"min_samples,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if req.ItemID != nil {
		result, err := h.trainer.TrainItem(*req.ItemID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	minSamples := req.MinSamples
	if minSamples <= 0 {
		minSamples = minTrainRows
	}

	results, err := h.trainer.TrainAll(minSamples)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	saved := 0
	for _, res := range results {
		if res.Saved {
			saved++
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"trained": saved,
	})
}

// HandleListModels returns metadata for every stored model
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := NewModelRepository(h.db, h.log).List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": models,
		"count":  len(models),
	})
}

// HandleListRuns returns recent forecast runs, newest first
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := NewForecastRepository(h.db, h.log).ListRuns(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleGetRun returns every persisted row of one run
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if runID == "" {
		h.writeError(w, http.StatusBadRequest, "Run id is required")
		return
	}

	rows, err := NewForecastRepository(h.db, h.log).GetRun(runID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) == 0 {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"rows":   rows,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
