package settings

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Defaults applied whenever a key is missing or unparseable.
const (
	DefaultCoefTemp          = 0.15
	DefaultCoefRain          = 0.10
	DefaultMinBatchSize      = 6
	DefaultStdAlertThreshold = 1.5
	DefaultLookbackWeeks     = 26
	DefaultHolidayUpliftPct  = 15.0
	DefaultCVMinFoldRows     = 10
)

// DefaultCVTrainFractions returns the rolling-origin train fractions used
// when the cv_train_fractions setting is absent.
func DefaultCVTrainFractions() []float64 {
	return []float64{0.6, 0.75, 0.9}
}

// CanonRule maps raw item names matching Pattern to a canonical name.
// Rules apply in ascending ID order; the first match wins. Case sensitivity
// is rule-defined via inline regex flags, not imposed here.
type CanonRule struct {
	ID        int
	Pattern   *regexp.Regexp
	Canonical string
}

// Settings is an immutable snapshot of the runtime tunables.
type Settings struct {
	CoefTemp          float64
	CoefRain          float64
	MinBatchSize      int
	StdAlertThreshold float64
	LookbackWeeks     int
	SundayClosed      bool
	HolidayUpliftPct  float64
	CVTrainFractions  []float64
	CVMinFoldRows     int
	CanonRules        []CanonRule
}

var canonRuleName = regexp.MustCompile(`^canon_rule_(\d+)$`)

// Load reads all settings and builds a typed snapshot, falling back to
// defaults for missing or malformed values. Malformed canonicalization
// rules are skipped with a warning rather than failing the load.
func (r *Repository) Load() (*Settings, error) {
	raw, err := r.All()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		CoefTemp:          parseFloat(raw, "coef_temp", DefaultCoefTemp),
		CoefRain:          parseFloat(raw, "coef_rain", DefaultCoefRain),
		MinBatchSize:      parseInt(raw, "min_batch_size", DefaultMinBatchSize),
		StdAlertThreshold: parseFloat(raw, "std_alert_threshold", DefaultStdAlertThreshold),
		LookbackWeeks:     parseInt(raw, "lookback_weeks", DefaultLookbackWeeks),
		SundayClosed:      parseBool(raw, "sunday_closed", true),
		HolidayUpliftPct:  parseFloat(raw, "holiday_uplift_pct", DefaultHolidayUpliftPct),
		CVTrainFractions:  parseFractions(raw["cv_train_fractions"]),
		CVMinFoldRows:     parseInt(raw, "cv_min_fold_rows", DefaultCVMinFoldRows),
	}

	s.CanonRules = r.parseCanonRules(raw)

	return s, nil
}

// parseCanonRules extracts and compiles canon_rule_N entries, ordered by
// ascending rule number.
func (r *Repository) parseCanonRules(raw map[string]string) []CanonRule {
	var rules []CanonRule
	for name, value := range raw {
		m := canonRuleName.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id, _ := strconv.Atoi(m[1])

		rule, err := ParseCanonRule(id, value)
		if err != nil {
			r.log.Warn().Err(err).Str("setting", name).Msg("Skipping malformed canonicalization rule")
			continue
		}
		rules = append(rules, rule)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// ParseCanonRule parses a "<regex> => <canonical name>" rule definition.
func ParseCanonRule(id int, value string) (CanonRule, error) {
	parts := strings.SplitN(value, "=>", 2)
	if len(parts) != 2 {
		return CanonRule{}, fmt.Errorf("rule %d missing '=>' separator", id)
	}

	patternSrc := strings.TrimSpace(parts[0])
	canonical := strings.TrimSpace(parts[1])
	if patternSrc == "" || canonical == "" {
		return CanonRule{}, fmt.Errorf("rule %d has empty pattern or canonical name", id)
	}

	pattern, err := regexp.Compile(patternSrc)
	if err != nil {
		return CanonRule{}, fmt.Errorf("rule %d pattern invalid: %w", id, err)
	}

	return CanonRule{ID: id, Pattern: pattern, Canonical: canonical}, nil
}

func parseFloat(raw map[string]string, key string, def float64) float64 {
	if v, ok := raw[key]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func parseInt(raw map[string]string, key string, def int) int {
	if v, ok := raw[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func parseBool(raw map[string]string, key string, def bool) bool {
	if v, ok := raw[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func parseFractions(v string) []float64 {
	if strings.TrimSpace(v) == "" {
		return DefaultCVTrainFractions()
	}

	var out []float64
	for _, part := range strings.Split(v, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f <= 0 || f >= 1 {
			return DefaultCVTrainFractions()
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return DefaultCVTrainFractions()
	}
	return out
}
