package catalog

// Item is a canonical product identity. Items are never deleted; the
// category and active flag are operator-mutable, the canonical name is not.
type Item struct {
	ID            int64   `json:"id"`
	CanonicalName string  `json:"canonical_name"`
	Category      *string `json:"category,omitempty"`
	Active        bool    `json:"active"`
}

// Alias links a raw observed name string to an item. An alias is never
// re-pointed once created.
type Alias struct {
	ID     int64  `json:"id"`
	Alias  string `json:"alias"`
	ItemID int64  `json:"item_id"`
}
