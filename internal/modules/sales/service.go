package sales

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/catalog"
	"github.com/breadline/bakeplan/internal/modules/settings"
)

// Service ingests tidy sales rows: validates, resolves item names to stable
// ids, and inserts everything in a single transaction.
type Service struct {
	db           *database.DB
	settingsRepo *settings.Repository
	log          zerolog.Logger
}

// NewService creates a new sales service.
func NewService(db *database.DB, settingsRepo *settings.Repository, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		settingsRepo: settingsRepo,
		log:          log.With().Str("service", "sales").Logger(),
	}
}

// Ingest validates and stores a batch of sales rows.
//
// Input problems (blank names, bad dates, non-finite quantities) come back
// as a message list and nothing is written. Storage constraint violations,
// such as a duplicate (date, item) observation, abort the whole batch with
// an error; the transaction guarantees no partial writes either way.
func (s *Service) Ingest(rows []IngestRow) ([]string, error) {
	if len(rows) == 0 {
		return []string{"no rows to ingest"}, nil
	}

	if errs := Validate(rows); len(errs) > 0 {
		return errs, nil
	}

	rows = aggregateDuplicates(rows)

	cfg, err := s.settingsRepo.Load()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	resolver := catalog.NewResolver(catalog.NewRepository(tx, s.log), cfg.CanonRules, s.log)
	repo := NewRepository(tx, s.log)

	// Resolve each distinct name once.
	idCache := make(map[string]int64)
	for _, row := range rows {
		name := strings.TrimSpace(row.ItemName)
		itemID, ok := idCache[name]
		if !ok {
			itemID, err = resolver.Resolve(name, row.Category)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %q: %w", name, err)
			}
			idCache[name] = itemID
		}

		qty := int(math.Round(row.Quantity))
		if err := repo.Insert(row.Date, itemID, name, qty, row.DeviceStore, row.IsPromo); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info().Int("rows", len(rows)).Int("items", len(idCache)).Msg("Ingested sales batch")
	return nil, nil
}

// Validate checks a batch for input problems and returns human-readable
// messages, one per kind of defect found.
func Validate(rows []IngestRow) []string {
	var errs []string

	badDates := 0
	blankNames := 0
	badQty := 0
	for _, row := range rows {
		if _, err := time.Parse(dateLayout, row.Date); err != nil {
			badDates++
		}
		if strings.TrimSpace(row.ItemName) == "" {
			blankNames++
		}
		if math.IsNaN(row.Quantity) || math.IsInf(row.Quantity, 0) {
			badQty++
		}
	}

	if badDates > 0 {
		errs = append(errs, fmt.Sprintf("%d rows have an unparseable date (use YYYY-MM-DD)", badDates))
	}
	if blankNames > 0 {
		errs = append(errs, fmt.Sprintf("%d rows have an empty item name", blankNames))
	}
	if badQty > 0 {
		errs = append(errs, fmt.Sprintf("%d rows have a non-numeric quantity", badQty))
	}

	return errs
}

// aggregateDuplicates sums quantities for repeated (date, item_name) pairs
// so the uniqueness constraint only trips on conflicts with already stored
// data, not within one upload.
func aggregateDuplicates(rows []IngestRow) []IngestRow {
	type key struct {
		date string
		name string
	}

	merged := make(map[key]IngestRow)
	var order []key
	for _, row := range rows {
		k := key{row.Date, strings.TrimSpace(row.ItemName)}
		if existing, ok := merged[k]; ok {
			existing.Quantity += row.Quantity
			existing.IsPromo = existing.IsPromo || row.IsPromo
			merged[k] = existing
			continue
		}
		merged[k] = row
		order = append(order, k)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date < order[j].date
		}
		return order[i].name < order[j].name
	})

	out := make([]IngestRow, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	return out
}
