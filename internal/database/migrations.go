package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "banks and reviews",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS banks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    app_id TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    bank_id INTEGER NOT NULL REFERENCES banks(id),
    review_text TEXT NOT NULL,
    rating INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
    review_date TEXT NOT NULL,
    source TEXT,
    sentiment_label TEXT CHECK(sentiment_label IN ('positive', 'neutral', 'negative')),
    sentiment_score REAL,
    inserted_at TEXT DEFAULT (datetime('now')),
    UNIQUE(bank_id, review_text)
);

CREATE INDEX IF NOT EXISTS idx_reviews_bank ON reviews(bank_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "keywords, themes and runs",
		Up: func(tx *sql.Tx) error {
			for _, col := range []struct{ name, decl string }{
				{"keywords", "TEXT"},
				{"themes", "TEXT"},
				{"run_id", "TEXT"},
			} {
				if err := addColumnIfMissing(tx, "reviews", col.name, col.decl); err != nil {
					return err
				}
			}
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    raw_count INTEGER DEFAULT 0,
    cleaned_count INTEGER DEFAULT 0,
    analyzed_count INTEGER DEFAULT 0,
    inserted_count INTEGER DEFAULT 0,
    loss_percent REAL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_reviews_run ON reviews(run_id);
CREATE INDEX IF NOT EXISTS idx_reviews_date ON reviews(review_date);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
