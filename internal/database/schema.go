package database

import "fmt"

// schema is the full table set. Statements are idempotent so Migrate can
// run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY,
  canonical_name TEXT UNIQUE NOT NULL,
  category TEXT,
  active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(canonical_name);

CREATE TABLE IF NOT EXISTS item_aliases (
  id INTEGER PRIMARY KEY,
  alias TEXT UNIQUE NOT NULL,
  item_id INTEGER NOT NULL,
  FOREIGN KEY(item_id) REFERENCES items(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_alias_item ON item_aliases(item_id);

CREATE TABLE IF NOT EXISTS sales_data (
  id INTEGER PRIMARY KEY,
  date TEXT NOT NULL,
  item_name TEXT NOT NULL,
  quantity_sold INTEGER NOT NULL,
  device_store TEXT,
  is_promo INTEGER NOT NULL DEFAULT 0,
  item_id INTEGER NOT NULL,
  FOREIGN KEY(item_id) REFERENCES items(id)
);
CREATE INDEX IF NOT EXISTS idx_sales_date ON sales_data(date);
CREATE INDEX IF NOT EXISTS idx_sales_item_id ON sales_data(item_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_sales_date_item ON sales_data(date, item_id);

CREATE TABLE IF NOT EXISTS weather (
  id INTEGER PRIMARY KEY,
  date TEXT NOT NULL,
  max_temp REAL,
  rain_mm REAL,
  source TEXT
);
CREATE INDEX IF NOT EXISTS idx_weather_date ON weather(date);

CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY,
  date TEXT NOT NULL,
  event_name TEXT NOT NULL,
  event_type TEXT,
  uplift_pct REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);

CREATE TABLE IF NOT EXISTS models (
  id INTEGER PRIMARY KEY,
  item_id INTEGER NOT NULL,
  algo TEXT NOT NULL,
  model_blob BLOB NOT NULL,
  features_json TEXT,
  n_samples INTEGER,
  cv_mape REAL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(item_id) REFERENCES items(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_models_item ON models(item_id);

CREATE TABLE IF NOT EXISTS forecasts (
  id INTEGER PRIMARY KEY,
  run_id TEXT NOT NULL,
  week_start_date TEXT NOT NULL,
  item_name TEXT NOT NULL,
  mon INTEGER, tue INTEGER, wed INTEGER,
  thu INTEGER, fri INTEGER, sat INTEGER,
  notes TEXT,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecasts_week ON forecasts(week_start_date);
CREATE INDEX IF NOT EXISTS idx_forecasts_run ON forecasts(run_id);

CREATE TABLE IF NOT EXISTS config (
  id INTEGER PRIMARY KEY,
  setting_name TEXT UNIQUE NOT NULL,
  setting_value TEXT
);
`

// defaultConfig seeds the tunables the first time the database is created.
// Values stay editable at runtime through the settings module.
var defaultConfig = map[string]string{
	"coef_temp":           "0.15",
	"coef_rain":           "0.10",
	"min_batch_size":      "6",
	"std_alert_threshold": "1.5",
	"lookback_weeks":      "26",
	"sunday_closed":       "1",
	"holiday_uplift_pct":  "15",
	"cv_train_fractions":  "0.6,0.75,0.9",
	"cv_min_fold_rows":    "10",

	// Canonicalization rules, evaluated in ascending rule id order.
	// Format: <regex> => <canonical name>
	"canon_rule_1": `(?i)hot\s*choc.* => Hot Chocolate`,
	"canon_rule_2": `(?i)matcha.* => Matcha`,
	"canon_rule_3": `(?i)coffee.*(reg|regular).* => Coffee (Regular)`,
	"canon_rule_4": `(?i)coffee.*(large|l)\b.* => Coffee (Large)`,
}

// Migrate creates the schema and seeds default settings for keys that do
// not exist yet.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for name, value := range defaultConfig {
		_, err := db.conn.Exec(
			"INSERT OR IGNORE INTO config(setting_name, setting_value) VALUES (?, ?)",
			name, value,
		)
		if err != nil {
			return fmt.Errorf("failed to seed config %s: %w", name, err)
		}
	}

	return nil
}
