package postgres

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

// whereClause renders the filter as a WHERE clause with $n placeholders.
func whereClause(f repository.ProfileFilter) (string, []any) {
	var conds []string
	var args []any
	if f.ID != nil {
		args = append(args, *f.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
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

// Upsert inserts each profile or overwrites the row with the same id.
// xmax is zero only for freshly inserted tuples, which tells inserts from
// updates without a second query.
func (repo *ProfileRepo) Upsert(ctx context.Context, profiles []*entity.Profile) (res repository.UpsertResult, err error) {
	const upsert = `
INSERT INTO profiles (id, user_id, platform, bot_id, guild_id, notify, cooldown_seconds)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    user_id          = EXCLUDED.user_id,
    platform         = EXCLUDED.platform,
    bot_id           = EXCLUDED.bot_id,
    guild_id         = EXCLUDED.guild_id,
    notify           = EXCLUDED.notify,
    cooldown_seconds = EXCLUDED.cooldown_seconds
RETURNING (xmax = 0) AS inserted`

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
		var inserted bool
		if err = tx.QueryRowContext(ctx, upsert,
			p.ID, p.UserID, p.Platform, p.BotID, p.GuildID, p.Notify, entity.ClampInterval(p.Interval),
		).Scan(&inserted); err != nil {
			return repository.UpsertResult{}, fmt.Errorf("Upsert: QueryRowContext: %w", err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Matched++
		}
	}

	if err = tx.Commit(); err != nil {
		return repository.UpsertResult{}, fmt.Errorf("Upsert: Commit: %w", err)
	}
	return res, nil
}

// Remove deletes the profiles selected by filter. Every matched row is
// removed in one statement, so Matched equals Removed. An empty filter is
// rejected rather than deleting every row.
func (repo *ProfileRepo) Remove(ctx context.Context, filter repository.ProfileFilter) (repository.RemoveResult, error) {
	where, args := whereClause(filter)
	if where == "" {
		return repository.RemoveResult{}, fmt.Errorf("Remove: %w: empty filter", entity.ErrInvalidInput)
	}

	result, err := repo.db.ExecContext(ctx, `DELETE FROM profiles `+where, args...)
	if err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: ExecContext: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return repository.RemoveResult{}, fmt.Errorf("Remove: RowsAffected: %w", err)
	}
	return repository.RemoveResult{Matched: int(removed), Removed: int(removed)}, nil
}
