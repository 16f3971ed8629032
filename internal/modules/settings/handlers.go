package settings

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Handler handles settings HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetSettings returns every stored setting as raw name/value pairs
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.All()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": all,
	})
}

// HandleUpdateSettings upserts the provided name/value pairs. Unknown names
// are stored as-is; typed readers fall back to defaults when a value fails
// to parse.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req) == 0 {
		h.writeError(w, http.StatusBadRequest, "No settings provided")
		return
	}

	for name, value := range req {
		name = strings.TrimSpace(name)
		if name == "" {
			h.writeError(w, http.StatusBadRequest, "Setting name is required")
			return
		}
		if canonRuleName.MatchString(name) {
			if _, err := ParseCanonRule(0, value); err != nil {
				h.writeError(w, http.StatusBadRequest, "Invalid canonicalization rule: "+err.Error())
				return
			}
		}
		if err := h.repo.Set(name, value); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	all, err := h.repo.All()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": all,
		"updated":  len(req),
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
