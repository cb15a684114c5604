package database

import (
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// UpsertBank inserts a bank or updates its app ID, returning the bank's ID.
// An empty appID leaves a stored one untouched.
func (db *DB) UpsertBank(name, appID string) (int64, error) {
	return upsertBank(db.conn, name, appID)
}

type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func upsertBank(q execQuerier, name, appID string) (int64, error) {
	var app *string
	if appID != "" {
		app = &appID
	}
	if _, err := q.Exec(
		`INSERT INTO banks (name, app_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET app_id = COALESCE(excluded.app_id, banks.app_id)`,
		name, app,
	); err != nil {
		return 0, errors.Wrapf(err, "upserting bank %q", name)
	}

	var id int64
	if err := q.QueryRow("SELECT id FROM banks WHERE name = ?", name).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "looking up bank %q", name)
	}
	return id, nil
}

// SaveAnalyzed stores reviews in one transaction. Reviews whose bank and text
// are already stored are skipped, so re-running a batch adds nothing.
// appIDs optionally maps bank names to app IDs.
func (db *DB) SaveAnalyzed(runID string, reviews []review.AnalyzedReview, appIDs map[string]string) (*SaveResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO reviews
		(bank_id, review_text, rating, review_date, source, sentiment_label, sentiment_score, keywords, themes, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	var run *string
	if runID != "" {
		run = &runID
	}

	bankIDs := make(map[string]int64)
	res := &SaveResult{}
	for _, r := range reviews {
		bankID, ok := bankIDs[r.Bank]
		if !ok {
			bankID, err = upsertBank(tx, r.Bank, appIDs[r.Bank])
			if err != nil {
				return nil, err
			}
			bankIDs[r.Bank] = bankID
		}

		var label *string
		var score *float64
		if r.Sentiment != nil {
			l := string(r.Sentiment.Label)
			label, score = &l, &r.Sentiment.Score
		}
		kws, err := marshalList(r.Keywords)
		if err != nil {
			return nil, err
		}
		themes, err := marshalList(r.Themes)
		if err != nil {
			return nil, err
		}

		result, err := stmt.Exec(bankID, r.Text, r.Rating, r.Date, r.Source, label, score, kws, themes, run)
		if err != nil {
			return nil, errors.Wrap(err, "inserting review")
		}
		if n, _ := result.RowsAffected(); n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit save")
	}
	db.logger.Debug().Int("inserted", res.Inserted).Int("skipped", res.Skipped).Msg("Saved reviews")
	return res, nil
}

// CountReviews returns the number of stored reviews.
func (db *DB) CountReviews() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM reviews").Scan(&n)
	return n, err
}

// GetBanks returns all banks with their review counts, ordered by name.
func (db *DB) GetBanks() ([]Bank, error) {
	rows, err := db.conn.Query(
		`SELECT b.id, b.name, b.app_id, b.created_at, COUNT(r.id)
		FROM banks b LEFT JOIN reviews r ON r.bank_id = b.id
		GROUP BY b.id ORDER BY b.name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []Bank
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.AppID, &b.CreatedAt, &b.ReviewCount); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// GetReviewsForBank returns a bank's reviews, newest first. An empty label
// matches every review; limit <= 0 means no limit.
func (db *DB) GetReviewsForBank(bank, label string, limit int) ([]StoredReview, error) {
	query := `SELECT r.id, b.name, r.review_text, r.rating, r.review_date, r.source,
		r.sentiment_label, r.sentiment_score, r.keywords, r.themes, r.run_id, r.inserted_at
		FROM reviews r JOIN banks b ON b.id = r.bank_id
		WHERE b.name = ?`
	args := []any{bank}
	if label != "" {
		query += " AND r.sentiment_label = ?"
		args = append(args, label)
	}
	query += " ORDER BY r.review_date DESC, r.id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]StoredReview, error) {
	var out []StoredReview
	for rows.Next() {
		var r StoredReview
		var kws, themes *string
		if err := rows.Scan(&r.ID, &r.Bank, &r.Text, &r.Rating, &r.Date, &r.Source,
			&r.SentimentLabel, &r.SentimentScore, &kws, &themes, &r.RunID, &r.InsertedAt); err != nil {
			return nil, err
		}
		r.Keywords = unmarshalList(kws)
		r.Themes = unmarshalList(themes)
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", errors.Wrap(err, "encoding list")
	}
	return string(data), nil
}

func unmarshalList(s *string) []string {
	if s == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil
	}
	return out
}
