package db

import (
	"database/sql"
)

// MigrateUp creates the profiles table and its index. The statements are
// valid for both PostgreSQL and SQLite.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
    id               BIGINT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    platform         TEXT NOT NULL,
    bot_id           TEXT NOT NULL DEFAULT '',
    guild_id         TEXT NOT NULL DEFAULT '',
    notify           BOOLEAN NOT NULL DEFAULT TRUE,
    cooldown_seconds INTEGER NOT NULL DEFAULT 30
)`); err != nil {
		return err
	}

	// user 単位の list / on / off / interval 用
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id)`); err != nil {
		return err
	}

	return nil
}
