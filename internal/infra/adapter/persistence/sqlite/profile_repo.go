package sqlite

import (
	"context"
	"fmt"
	"strings"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/infra/db"
	"turn-notify/internal/repository"
)

type ProfileRepo struct{ db db.Conn }

func NewProfileRepo(conn db.Conn) repository.ProfileRepository {
	return &ProfileRepo{db: conn}
}

// whereClause renders the filter as a WHERE clause with ? placeholders.
func whereClause(f repository.ProfileFilter) (string, []any) {
	var conds []string
	var args []any
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (repo *ProfileRepo) Get(ctx context.Context, filter repository.ProfileFilter) ([]*entity.Profile, error) {
	where, args := whereClause(filter)
	query := `
SELECT id, user_id, platform, bot_id, guild_id, notify, cooldown_seconds
FROM profiles
` + where + `
ORDER BY id ASC`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Get: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	profiles := make([]*entity.Profile, 0, 4)
	for rows.Next() {
		var p entity.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Platform, &p.BotID, &p.GuildID,
			&p.Notify, &p.Interval); err != nil {
			return nil, fmt.Errorf("Get: Scan: %w", err)
		}
		p.Interval = entity.ClampInterval(p.Interval)
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Get: rows.Err: %w", err)
	}
	return profiles, nil
}

// Upsert inserts each profile or overwrites the row with the same id. Rows
// that existed beforehand are counted as matched.
func (repo *ProfileRepo) Upsert(ctx context.Context, profiles []*entity.Profile) (res repository.UpsertResult, err error) {
	const exists = `SELECT COUNT(*) FROM profiles WHERE id = ?`
	const upsert = `
INSERT INTO profiles (id, user_id, platform, bot_id, guild_id, notify, cooldown_seconds)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    user_id          = excluded.user_id,
    platform         = excluded.platform,
    bot_id           = excluded.bot_id,
    guild_id         = excluded.guild_id,
    notify           = excluded.notify,
    cooldown_seconds = excluded.cooldown_seconds`

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("Upsert: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range profiles {
		var n int
		if err = tx.QueryRowContext(ctx, exists, p.ID).Scan(&n); err != nil {
			return repository.UpsertResult{}, fmt.Errorf("Upsert: QueryRowContext: %w", err)
		}
		if _, err = tx.ExecContext(ctx, upsert,
			p.ID, p.UserID, p.Platform, p.BotID, p.GuildID, p.Notify, entity.ClampInterval(p.Interval),
		); err != nil {
			return repository.UpsertResult{}, fmt.Errorf("Upsert: ExecContext: %w", err)
		}
		if n > 0 {
			res.Matched++
		} else {
			res.Inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return repository.UpsertResult{}, fmt.Errorf("Upsert: Commit: %w", err)
	}
	return res, nil
}

// Remove deletes the profiles selected by filter. An empty filter is
// rejected rather than deleting every row.
func (repo *ProfileRepo) Remove(ctx context.Context, filter repository.ProfileFilter) (res repository.RemoveResult, err error) {
	where, args := whereClause(filter)
	if where == "" {
		return res, fmt.Errorf("Remove: %w: empty filter", entity.ErrInvalidInput)
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("Remove: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles `+where, args...).Scan(&res.Matched); err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: QueryRowContext: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM profiles `+where, args...)
	if err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: ExecContext: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: RowsAffected: %w", err)
	}
	res.Removed = int(removed)

	if err = tx.Commit(); err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: Commit: %w", err)
	}
	return res, nil
}
