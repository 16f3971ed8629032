package calendar

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles calendar HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "calendar").Logger(),
	}
}

// HandleAddEvent records an ad-hoc demand event (market day, festival,
// promotion) with an optional uplift percentage.
func (h *Handler) HandleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req Event
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Event name is required")
		return
	}

	if err := h.repo.Add(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, req)
}

// HandleWeekEvents lists the events falling inside one Mon..Sat week
func (h *Handler) HandleWeekEvents(w http.ResponseWriter, r *http.Request) {
	weekStartParam := r.URL.Query().Get("week_start")
	if weekStartParam == "" {
		h.writeError(w, http.StatusBadRequest, "week_start query parameter is required")
		return
	}

	weekStart, err := time.Parse(dateLayout, weekStartParam)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
		return
	}

	events, err := h.repo.WeekEvents(weekStart)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"week_start": weekStart.Format(dateLayout),
		"events":     events,
		"count":      len(events),
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
