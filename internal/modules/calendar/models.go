package calendar

// EventTypeHoliday marks public holidays, a distinguished event type used
// by the holiday feature flag.
const EventTypeHoliday = "public_holiday"

// Event is one calendar entry with an expected demand uplift. Multiple
// events may share a date.
type Event struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Name      string  `json:"event_name"`
	Type      string  `json:"event_type,omitempty"`
	UpliftPct float64 `json:"uplift_pct"`
}
