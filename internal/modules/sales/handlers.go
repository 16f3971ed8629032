package sales

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles sales HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new sales handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "sales").Logger(),
	}
}

// HandleIngest accepts a batch of daily sales rows. Rows with the same date
// and item name are summed before storage; a second batch for an already
// loaded (date, item) pair is rejected wholesale.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows []IngestRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Rows) == 0 {
		h.writeError(w, http.StatusBadRequest, "No rows provided")
		return
	}

	warnings, err := h.service.Ingest(req.Rows)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": len(req.Rows),
		"warnings": warnings,
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
