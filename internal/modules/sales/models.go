package sales

import "time"

// IngestRow is one tidy sales observation handed over by the ingestion
// collaborator (already header-normalized and deduplicated upstream).
type IngestRow struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	ItemName    string  `json:"item_name"`
	Quantity    float64 `json:"quantity_sold"`
	DeviceStore *string `json:"device_store,omitempty"`
	IsPromo     bool    `json:"is_promo,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// HistoryRow is a resolved sales observation joined with its canonical
// display name.
type HistoryRow struct {
	Date        time.Time
	ItemID      int64
	DisplayName string
	Quantity    float64
}

// ItemDay is one day of a single item's history joined with weather and
// the holiday flag, as consumed by the feature builder.
type ItemDay struct {
	Date      time.Time
	Quantity  float64
	Weekday   int // 0=Sun .. 6=Sat
	MaxTemp   *float64
	RainMM    *float64
	IsHoliday bool
}

// ItemCount pairs an item with its number of sales observations.
type ItemCount struct {
	ItemID int64
	Count  int
}
