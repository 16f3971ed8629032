package weather

// Observation is one daily weather row. MaxTemp and RainMM are nil when the
// source had no reading for that day.
type Observation struct {
	Date    string   `json:"date"` // YYYY-MM-DD
	MaxTemp *float64 `json:"max_temp"`
	RainMM  *float64 `json:"rain_mm"`
	Source  string   `json:"source,omitempty"`
}
