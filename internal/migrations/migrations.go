package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	Name string
	SQL  string
}

var all = []migration{
	{
		Name: "001_create_profiles",
		SQL: `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  class TEXT NOT NULL DEFAULT '',
  school TEXT NOT NULL DEFAULT '',
  avatar TEXT NULL,
  last_active TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	},
	{
		Name: "002_profiles_last_active_index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_profiles_last_active ON profiles (last_active DESC)`,
	},
}

func Apply(db *sqlx.DB) error {
	if err := ensureTable(db); err != nil {
		return err
	}
	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}
	for _, mig := range all {
		if applied[mig.Name] {
			continue
		}
		if err := applyMigration(db, mig); err != nil {
			return fmt.Errorf("migration %s: %w", mig.Name, err)
		}
	}
	return nil
}

func ensureTable(db *sqlx.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

func appliedMigrations(db *sqlx.DB) (map[string]bool, error) {
	names := []string{}
	if err := db.Select(&names, `SELECT name FROM schema_migrations`); err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(names))
	for _, name := range names {
		applied[name] = true
	}
	return applied, nil
}

func applyMigration(db *sqlx.DB, mig migration) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(mig.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, mig.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
