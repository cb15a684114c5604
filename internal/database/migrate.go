package database

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, errors.Wrap(err, "reading schema version")
	}
	return version, nil
}

// isLegacyDB returns true if the database has a reviews table but no
// user_version set. Such files come from the earlier loader scripts, whose
// banks/reviews tables match migration 1.
func isLegacyDB(conn *sql.DB) (bool, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='reviews'",
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "checking for legacy tables")
	}
	return count > 0, nil
}

// migrate brings the database schema up to the latest version.
// It uses PRAGMA user_version to track which migrations have been applied.
func migrate(conn *sql.DB, logger zerolog.Logger) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}

	if current == 0 {
		legacy, err := isLegacyDB(conn)
		if err != nil {
			return err
		}
		if legacy {
			logger.Info().Msg("Detected legacy database, stamping as version 1")
			if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
				return errors.Wrap(err, "stamping legacy version")
			}
			current = 1
		}
	}

	latest := latestVersion()
	if current >= latest {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		logger.Info().Int("version", m.Version).Str("description", m.Description).Msg("Applying migration")

		tx, err := conn.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin migration %d", m.Version)
		}

		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "migration %d (%s)", m.Version, m.Description)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit migration %d", m.Version)
		}

		// modernc/sqlite does not apply user_version inside a transaction.
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return errors.Wrapf(err, "setting version %d", m.Version)
		}
	}

	return nil
}

// addColumnIfMissing makes ALTER TABLE ADD COLUMN safe to re-run.
func addColumnIfMissing(tx *sql.Tx, table, column, decl string) error {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}
