package catalog

import (
	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/settings"
)

// Service wraps resolution in a transaction per call. Two racing calls with
// the same novel raw name can both decide to create the item; the loser hits
// the canonical-name uniqueness constraint and re-resolves against the
// winner's rows instead of failing.
type Service struct {
	db           *database.DB
	settingsRepo *settings.Repository
	log          zerolog.Logger
}

// NewService creates a new catalog service.
func NewService(db *database.DB, settingsRepo *settings.Repository, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		settingsRepo: settingsRepo,
		log:          log.With().Str("service", "catalog").Logger(),
	}
}

// Resolve maps a raw item name to a stable item id, committing any created
// item/alias rows. Idempotent across calls.
func (s *Service) Resolve(rawName string, category *string) (int64, error) {
	cfg, err := s.settingsRepo.Load()
	if err != nil {
		return 0, err
	}

	id, err := s.resolveOnce(rawName, category, cfg.CanonRules)
	if err != nil && database.IsUniqueViolation(err) {
		s.log.Warn().Str("raw_name", rawName).
			Msg("Resolution lost a creation race, re-resolving")
		return s.resolveOnce(rawName, category, cfg.CanonRules)
	}
	return id, err
}

func (s *Service) resolveOnce(rawName string, category *string, rules []settings.CanonRule) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	resolver := NewResolver(NewRepository(tx, s.log), rules, s.log)
	id, err := resolver.Resolve(rawName, category)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Items returns the full catalog.
func (s *Service) Items() ([]Item, error) {
	return NewRepository(s.db, s.log).GetAll()
}

// Item returns a single item by id.
func (s *Service) Item(id int64) (*Item, error) {
	return NewRepository(s.db, s.log).GetItem(id)
}

// UpdateItem mutates an item's category and active flag.
func (s *Service) UpdateItem(id int64, category *string, active bool) error {
	return NewRepository(s.db, s.log).UpdateItem(id, category, active)
}
