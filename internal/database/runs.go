package database

import (
	"database/sql"

	"github.com/cockroachdb/errors"
)

// InsertRun records a finished pipeline run.
func (db *DB) InsertRun(r Run) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, started_at, finished_at, raw_count, cleaned_count, analyzed_count, inserted_count, loss_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.FinishedAt, r.RawCount, r.CleanedCount, r.AnalyzedCount, r.InsertedCount, r.LossPercent,
	)
	if err != nil {
		return errors.Wrapf(err, "inserting run %s", r.ID)
	}
	return nil
}

// GetLastRun returns the most recently finished run, or nil if none exist.
func (db *DB) GetLastRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, raw_count, cleaned_count, analyzed_count, inserted_count, loss_percent
		FROM runs ORDER BY finished_at DESC LIMIT 1`,
	)
	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.RawCount, &r.CleanedCount,
		&r.AnalyzedCount, &r.InsertedCount, &r.LossPercent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{Labels: make(map[string]int), PerBank: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM banks").Scan(&s.Banks); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM reviews").Scan(&s.Reviews); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&s.Runs); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT COALESCE(sentiment_label, ''), COUNT(*) FROM reviews GROUP BY sentiment_label`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		if label == "" {
			label = "none"
		}
		s.Labels[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	banks, err := db.GetBanks()
	if err != nil {
		return nil, err
	}
	for _, b := range banks {
		s.PerBank[b.Name] = b.ReviewCount
	}
	return s, nil
}
