package catalog

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/settings"
)

// ErrEmptyName is returned when a raw item name trims down to nothing.
var ErrEmptyName = errors.New("empty item name cannot be resolved")

// Resolver maps raw item-name strings to a stable item id, creating items
// and aliases as needed. Resolution is idempotent: the same raw name always
// yields the same id, and at most one item and one alias row are created
// per call.
type Resolver struct {
	repo  *Repository
	rules []settings.CanonRule
	log   zerolog.Logger
}

// NewResolver creates a resolver over the given repository and ordered
// canonicalization rules.
func NewResolver(repo *Repository, rules []settings.CanonRule, log zerolog.Logger) *Resolver {
	return &Resolver{
		repo:  repo,
		rules: rules,
		log:   log.With().Str("component", "item_resolver").Logger(),
	}
}

// Resolve returns the item id for a raw name.
//
// Order of resolution:
//  1. exact alias hit
//  2. first matching canonicalization rule, linking to an existing item
//     with that canonical name or creating one
//  3. the raw name becomes its own canonical identity
func (r *Resolver) Resolve(rawName string, category *string) (int64, error) {
	id, err := r.resolve(rawName, category)
	if err != nil && database.IsUniqueViolation(err) {
		// Another writer created the same item or alias between our lookup
		// and insert. The row exists now, so a second pass hits it.
		r.log.Debug().Str("name", rawName).Msg("Resolution raced an insert, retrying")
		return r.resolve(rawName, category)
	}
	return id, err
}

func (r *Resolver) resolve(rawName string, category *string) (int64, error) {
	alias := strings.TrimSpace(rawName)
	if alias == "" {
		return 0, ErrEmptyName
	}

	// Alias direct hit: no further work.
	if id, err := r.repo.GetItemIDByAlias(alias); err != nil {
		return 0, err
	} else if id != nil {
		return *id, nil
	}

	// Rules are pre-sorted by rule id; the first match wins.
	canonical := ""
	for _, rule := range r.rules {
		if rule.Pattern.MatchString(alias) {
			canonical = rule.Canonical
			break
		}
	}

	if canonical != "" {
		existing, err := r.repo.GetItemIDByCanonical(canonical)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			if err := r.repo.CreateAlias(alias, *existing); err != nil {
				return 0, err
			}
			r.log.Debug().Str("alias", alias).Str("canonical", canonical).Int64("item_id", *existing).
				Msg("Linked alias to existing item")
			return *existing, nil
		}

		id, err := r.repo.CreateItemWithAlias(canonical, alias, category)
		if err != nil {
			return 0, err
		}
		r.log.Info().Str("alias", alias).Str("canonical", canonical).Int64("item_id", id).
			Msg("Created item from canonicalization rule")
		return id, nil
	}

	// No rule matched: the raw name is its own canonical identity.
	id, err := r.repo.CreateItemWithAlias(alias, alias, category)
	if err != nil {
		return 0, err
	}
	r.log.Info().Str("alias", alias).Int64("item_id", id).Msg("Created item")
	return id, nil
}
