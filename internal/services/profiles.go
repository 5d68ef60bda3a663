package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dende197/g-connect-backend/internal/models"
)

// The profile store is display-only and optional: a nil DB disables
// persistence without affecting login, the same way the original runs
// without its managed datastore configured.

// UpsertProfile writes the denormalized name/class/last_active record
// for the opaque "school:user:index" key. The avatar, owned by the
// profile-edit flow, is left untouched.
func UpsertProfile(db *sqlx.DB, rec models.StoredProfile) error {
	if db == nil {
		return nil
	}
	_, err := db.Exec(`
INSERT INTO profiles (id, name, class, school, last_active)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  class = EXCLUDED.class,
  school = EXCLUDED.school,
  last_active = EXCLUDED.last_active
`, rec.ID, rec.Name, rec.Class, rec.School, rec.LastActive)
	return WrapError(err, "profile upsert")
}

// UpdateStoredProfile applies a partial display update; nil fields keep
// their stored values.
func UpdateStoredProfile(db *sqlx.DB, id string, name, class, avatar *string) error {
	if id == "" {
		return ErrBadRequest("Identificativo profilo mancante")
	}
	if db == nil {
		return ErrNotFound("profile store disabled")
	}
	now := time.Now().UTC()
	_, err := db.Exec(`
INSERT INTO profiles (id, name, class, school, avatar, last_active)
VALUES ($1, COALESCE($2,''), COALESCE($3,''), '', $4, $5)
ON CONFLICT (id) DO UPDATE SET
  name = COALESCE($2, profiles.name),
  class = COALESCE($3, profiles.class),
  avatar = COALESCE($4, profiles.avatar),
  last_active = $5
`, id, name, class, avatar, now)
	return WrapError(err, "profile update")
}

func GetProfile(db *sqlx.DB, id string) (*models.StoredProfile, error) {
	if db == nil {
		return nil, ErrNotFound("profile store disabled")
	}
	rec := models.StoredProfile{}
	err := db.Get(&rec, `
SELECT id, name, class, school, avatar, last_active
FROM profiles
WHERE id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("profile not found")
	}
	if err != nil {
		return nil, WrapError(err, "profile select")
	}
	return &rec, nil
}
